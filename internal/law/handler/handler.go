package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"altar/internal/law"
	"altar/internal/law/service"
	"altar/internal/observance"
	"altar/internal/platform/metrics"
	"altar/internal/platform/middleware"
	dErrors "altar/pkg/domain-errors"
	"altar/pkg/platform/httputil"
	"altar/pkg/requestcontext"
)

// Service defines the law operations exposed over HTTP.
type Service interface {
	Protocol(ctx context.Context, uc law.UserContext) (*service.ProtocolResult, error)
	Today(ctx context.Context, userID string, uc law.UserContext) (*service.TodayResult, error)
	Search(ctx context.Context, q law.Query) []law.Rule
	Get(ctx context.Context, id int) (law.Rule, error)
	Catalog(ctx context.Context) service.CatalogSummary
	RecordObservance(ctx context.Context, userID string, ruleID, points int) (*observance.Observance, error)
	Score(ctx context.Context, userID string) (*observance.Score, error)
	History(ctx context.Context, userID string, limit int) ([]*observance.Observance, error)
}

// Handler handles law and observance endpoints.
type Handler struct {
	logger  *slog.Logger
	laws    Service
	metrics *metrics.Metrics
	timeout time.Duration
}

const defaultTimeout = 10 * time.Second

type Option func(*Handler)

// WithTimeout bounds each law request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a new law Handler.
func New(laws Service, logger *slog.Logger, metrics *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		laws:    laws,
		metrics: metrics,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the law routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	lawRouter := chi.NewRouter()
	lawRouter.Use(middleware.Timeout(h.timeout))
	lawRouter.Use(middleware.ContentTypeJSON)
	lawRouter.Use(middleware.LatencyMiddleware(h.metrics))

	lawRouter.Post("/laws/protocol", h.HandleProtocol)
	lawRouter.Post("/laws/today", h.HandleToday)
	lawRouter.Get("/laws", h.HandleSearch)
	lawRouter.Get("/laws/catalog", h.HandleCatalog)
	lawRouter.Get("/laws/{id}", h.HandleGet)
	lawRouter.Post("/observances", h.HandleRecordObservance)
	lawRouter.Get("/observances/{user_id}/score", h.HandleScore)
	lawRouter.Get("/observances/{user_id}", h.HandleHistory)

	r.Mount("/", lawRouter)
}

// HandleProtocol evaluates the daily protocol for a subject profile.
func (h *Handler) HandleProtocol(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProtocolRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.laws.Protocol(ctx, req.Context())
	if err != nil {
		h.writeError(ctx, w, "failed to evaluate protocol", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProtocolResponse(res))
}

// HandleToday evaluates the protocol for a user alongside their score.
func (h *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TodayRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.laws.Today(ctx, req.UserID, req.Context())
	if err != nil {
		h.writeError(ctx, w, "failed to build daily view", err)
		return
	}
	observed := res.ObservedToday
	if observed == nil {
		observed = []int{}
	}
	httputil.WriteJSON(w, http.StatusOK, TodayResponse{
		ProtocolResponse: toProtocolResponse(&res.ProtocolResult),
		Score:            toScoreResponse(res.Score),
		ObservedToday:    observed,
	})
}

// HandleSearch filters the catalog by ?q=&category=&severity=&authority=.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	q, err := parseQuery(params.Get("q"), params.Get("category"), params.Get("severity"), params.Get("authority"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	laws := toRuleResponses(h.laws.Search(ctx, q))
	httputil.WriteJSON(w, http.StatusOK, SearchResponse{Laws: laws, Total: len(laws)})
}

// HandleGet returns one law by id.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "law id must be a positive integer"))
		return
	}
	rule, err := h.laws.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "failed to get law", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
}

// HandleCatalog summarizes the published catalog.
func (h *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toCatalogResponse(h.laws.Catalog(r.Context())))
}

// HandleRecordObservance records that a user kept a law today.
func (h *Handler) HandleRecordObservance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ObservanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	o, err := h.laws.RecordObservance(ctx, req.UserID, req.RuleID, req.Points)
	if err != nil {
		h.writeError(ctx, w, "failed to record observance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toObservanceResponse(o))
}

// HandleScore returns a user's alignment score.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	score, err := h.laws.Score(ctx, chi.URLParam(r, "user_id"))
	if err != nil {
		h.writeError(ctx, w, "failed to load score", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScoreResponse(*score))
}

// HandleHistory lists a user's recent observances, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := h.laws.History(ctx, chi.URLParam(r, "user_id"), limit)
	if err != nil {
		h.writeError(ctx, w, "failed to list observances", err)
		return
	}
	out := make([]ObservanceResponse, 0, len(records))
	for _, o := range records {
		out = append(out, toObservanceResponse(o))
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Observances: out, Total: len(out)})
}

// writeError logs internal failures at error level and client mistakes at
// warn level before writing the error envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
