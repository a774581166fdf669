package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"altar/internal/observance"
	"altar/pkg/platform/sentinel"
	"altar/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore persists observances in PostgreSQL. The unique constraint on
// (user_id, rule_id, day) enforces one observance per rule per day. Methods
// join a transaction carried by the context (see tx.WithTx).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the observances table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("migrate observances: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Record(ctx context.Context, o *observance.Observance) error {
	query := `
		INSERT INTO observances (id, user_id, rule_id, points, day, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query, o.ID, o.UserID, o.RuleID, o.Points, o.Day, o.RecordedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("rule %d already observed on %s: %w", o.RuleID, o.Day, sentinel.ErrConflict)
		}
		return fmt.Errorf("record observance: %w", err)
	}
	return nil
}

func (s *PostgresStore) Totals(ctx context.Context, userID string) (observance.Totals, error) {
	query := `
		SELECT COALESCE(SUM(points), 0), COUNT(*), MAX(recorded_at)
		FROM observances
		WHERE user_id = $1
	`
	var (
		t    observance.Totals
		last sql.NullTime
	)
	if err := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, userID).Scan(&t.Points, &t.Observances, &last); err != nil {
		return observance.Totals{}, fmt.Errorf("read observance totals: %w", err)
	}
	if last.Valid {
		t.LastRecorded = last.Time.UTC()
	}
	return t, nil
}

// ListByUser returns up to limit observances, most recent first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*observance.Observance, error) {
	query := `
		SELECT id, user_id, rule_id, points, day, recorded_at
		FROM observances
		WHERE user_id = $1
		ORDER BY recorded_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list observances: %w", err)
	}
	defer rows.Close()

	var out []*observance.Observance
	for rows.Next() {
		var (
			o   observance.Observance
			day time.Time
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.RuleID, &o.Points, &day, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan observance: %w", err)
		}
		o.Day = observance.DayOf(day)
		o.RecordedAt = o.RecordedAt.UTC()
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list observances: %w", err)
	}
	return out, nil
}

// ObservedOn returns which of ruleIDs the user observed on day, ascending.
func (s *PostgresStore) ObservedOn(ctx context.Context, userID, day string, ruleIDs []int) ([]int, error) {
	query := `
		SELECT rule_id FROM observances
		WHERE user_id = $1 AND day = $2 AND rule_id = ANY($3)
		ORDER BY rule_id
	`
	ids := make([]int64, len(ruleIDs))
	for i, id := range ruleIDs {
		ids[i] = int64(id)
	}
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx, query, userID, day, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query observed rules: %w", err)
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan observed rule: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
