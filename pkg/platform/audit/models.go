package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers user-attributable records that must be kept,
	// such as a recorded observance.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging and
	// usage analysis. These can be sampled.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventProtocolEvaluated  AuditEvent = "protocol_evaluated"
	EventObservanceRecorded AuditEvent = "observance_recorded"
	EventCatalogReloaded    AuditEvent = "catalog_reloaded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventObservanceRecorded: CategoryCompliance,
	EventProtocolEvaluated:  CategoryOperations,
	EventCatalogReloaded:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from the service layer to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`

	// UserID is empty for anonymous protocol evaluations.
	UserID string `json:"user_id,omitempty"`
	// RuleID is the primary rule of an evaluation or the observed rule.
	RuleID         int    `json:"rule_id,omitempty"`
	CatalogVersion string `json:"catalog_version,omitempty"`

	// Attributes carries action-specific detail (tribe, counts, points).
	Attributes map[string]string `json:"attributes,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
