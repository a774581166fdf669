package testutil

import (
	"net/http"
	"time"

	"altar/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock so day keys are deterministic.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
