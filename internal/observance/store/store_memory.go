// Package store persists observances. Stores are pure I/O: they report a
// duplicate (user, rule, day) as sentinel.ErrConflict and leave scoring to
// the observance package.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"altar/internal/observance"
	"altar/pkg/platform/sentinel"
)

type dayKey struct {
	ruleID int
	day    string
}

// InMemoryStore keeps observances in process.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]*observance.Observance
	seen   map[string]map[dayKey]struct{}
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byUser: make(map[string][]*observance.Observance),
		seen:   make(map[string]map[dayKey]struct{}),
	}
}

func (s *InMemoryStore) Record(_ context.Context, o *observance.Observance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey{ruleID: o.RuleID, day: o.Day}
	days := s.seen[o.UserID]
	if days == nil {
		days = make(map[dayKey]struct{})
		s.seen[o.UserID] = days
	}
	if _, dup := days[key]; dup {
		return fmt.Errorf("rule %d already observed on %s: %w", o.RuleID, o.Day, sentinel.ErrConflict)
	}
	days[key] = struct{}{}
	stored := *o
	s.byUser[o.UserID] = append(s.byUser[o.UserID], &stored)
	return nil
}

func (s *InMemoryStore) Totals(_ context.Context, userID string) (observance.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t observance.Totals
	for _, o := range s.byUser[userID] {
		t.Points += o.Points
		t.Observances++
		if o.RecordedAt.After(t.LastRecorded) {
			t.LastRecorded = o.RecordedAt
		}
	}
	return t, nil
}

// ListByUser returns up to limit observances, most recent first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*observance.Observance, error) {
	s.mu.RLock()
	records := slices.Clone(s.byUser[userID])
	s.mu.RUnlock()

	slices.Reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]*observance.Observance, len(records))
	for i, o := range records {
		c := *o
		out[i] = &c
	}
	return out, nil
}

// ObservedOn returns which of ruleIDs the user observed on day, ascending.
func (s *InMemoryStore) ObservedOn(_ context.Context, userID, day string, ruleIDs []int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []int{}
	days := s.seen[userID]
	for _, id := range ruleIDs {
		if _, ok := days[dayKey{ruleID: id, day: day}]; ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}
