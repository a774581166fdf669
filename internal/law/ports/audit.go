package ports

import (
	"context"

	"altar/pkg/platform/audit"
)

// AuditPublisher defines the interface for emitting audit events.
// This matches the audit publisher but is defined here to keep the law
// module independent of the sink.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
