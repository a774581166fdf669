package memory

import (
	"context"
	"sync"

	audit "altar/pkg/platform/audit"
)

// DefaultCapacity is the number of events an InMemoryStore retains when no
// capacity is given.
const DefaultCapacity = 1024

// InMemoryStore keeps the most recent audit events in process. Once full, each
// append overwrites the oldest event.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	next   int
	full   bool
}

type Option func(*InMemoryStore)

// WithCapacity bounds the number of retained events. Non-positive values keep
// the default.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.events = make([]audit.Event, n)
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{events: make([]audit.Event, DefaultCapacity)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[s.next] = event
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Len reports how many events are retained.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.full {
		return len(s.events)
	}
	return s.next
}

// ListByUser returns the retained events for a user, oldest first. Anonymous
// events are listed under the empty user id.
func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	start, n := 0, s.next
	if s.full {
		start, n = s.next, len(s.events)
	}
	for i := range n {
		e := s.events[(start+i)%len(s.events)]
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
