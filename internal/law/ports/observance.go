package ports

import (
	"context"

	"altar/internal/observance"
)

// ObservanceStore persists observances for the law service. Implementations
// return sentinel.ErrConflict when a user records the same rule twice on one
// day; the service translates that into a domain conflict.
type ObservanceStore interface {
	Record(ctx context.Context, o *observance.Observance) error
	Totals(ctx context.Context, userID string) (observance.Totals, error)
	// ListByUser returns up to limit observances, most recent first. A
	// non-positive limit returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]*observance.Observance, error)
	// ObservedOn returns which of ruleIDs the user observed on day, ascending.
	ObservedOn(ctx context.Context, userID, day string, ruleIDs []int) ([]int, error)
}
