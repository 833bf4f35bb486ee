package audit

import (
	"context"
	"sync"
)

// DefaultStoreCapacity bounds the in-memory store when no capacity is given.
const DefaultStoreCapacity = 10000

// Sink receives published events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// InMemoryStore keeps the most recent events in process, indexed by session.
// Once capacity is reached the oldest event is overwritten and removed from
// its session's history, so memory stays bounded however many sessions run.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
	ring   []Event
	next   int
	size   int
}

// StoreOption configures an InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithCapacity sets how many events the store retains. Non-positive values
// keep the default.
func WithCapacity(n int) StoreOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.ring = make([]Event, n)
		}
	}
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{events: make(map[string][]Event)}
	for _, opt := range opts {
		opt(s)
	}
	if s.ring == nil {
		s.ring = make([]Event, DefaultStoreCapacity)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size == len(s.ring) {
		s.dropOldest(s.ring[s.next].SessionID)
	} else {
		s.size++
	}
	s.ring[s.next] = event
	s.next = (s.next + 1) % len(s.ring)
	s.events[event.SessionID] = append(s.events[event.SessionID], event)
	return nil
}

// dropOldest removes the first event of a session. The ring evicts in
// insertion order, so it is always the session's oldest entry.
func (s *InMemoryStore) dropOldest(sessionID string) {
	history := s.events[sessionID]
	if len(history) <= 1 {
		delete(s.events, sessionID)
		return
	}
	history[0] = Event{}
	s.events[sessionID] = history[1:]
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[sessionID]...), nil
}
