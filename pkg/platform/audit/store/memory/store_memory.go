package memory

import (
	"context"
	"sync"

	audit "agrifin/pkg/platform/audit"
)

// DefaultMaxEvents is the retention of a store built without WithMaxEvents.
const DefaultMaxEvents = 10000

// InMemoryStore keeps the most recent audit events in process. Used in
// development and whenever no Kafka brokers are configured. Once full, each
// append overwrites the oldest event.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	// next is the slot the following append writes to.
	next int
	full bool
}

type Option func(*InMemoryStore)

// WithMaxEvents sets how many events are retained. Non-positive values keep
// the default.
func WithMaxEvents(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.events = make([]audit.Event, n)
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{events: make([]audit.Event, DefaultMaxEvents)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[s.next] = event
	s.next++
	if s.next == len(s.events) {
		s.next = 0
		s.full = true
	}
	return nil
}

// Len is the number of retained events.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lenLocked()
}

// ListByRequest returns the retained events correlated with requestID in
// append order.
func (s *InMemoryStore) ListByRequest(_ context.Context, requestID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	s.each(func(e audit.Event) {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	})
	return out, nil
}

// ListRecent returns at most limit of the most recently appended events,
// oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := max(s.lenLocked()-max(limit, 0), 0)
	out := make([]audit.Event, 0, s.lenLocked()-skip)
	i := 0
	s.each(func(e audit.Event) {
		if i >= skip {
			out = append(out, e)
		}
		i++
	})
	return out, nil
}

func (s *InMemoryStore) lenLocked() int {
	if s.full {
		return len(s.events)
	}
	return s.next
}

// each visits retained events oldest first. Callers hold the lock.
func (s *InMemoryStore) each(fn func(audit.Event)) {
	if s.full {
		for _, e := range s.events[s.next:] {
			fn(e)
		}
	}
	for _, e := range s.events[:s.next] {
		fn(e)
	}
}
