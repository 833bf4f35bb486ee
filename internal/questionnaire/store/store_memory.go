package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"policywriter/internal/questionnaire/models"
	"policywriter/pkg/domain"
	"policywriter/pkg/platform/sentinel"
)

// InMemorySessionStore keeps session records in a map with a sliding TTL.
// Single-process only; sessions do not survive a restart.
type InMemorySessionStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	records map[domain.SessionID]*entry
}

type entry struct {
	record    *models.Record
	expiresAt time.Time
}

// Option configures the store.
type Option func(*InMemorySessionStore)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *InMemorySessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemorySessionStore creates a store whose entries expire ttl after their
// last access.
func NewInMemorySessionStore(ttl time.Duration, opts ...Option) (*InMemorySessionStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	s := &InMemorySessionStore{
		ttl:     ttl,
		now:     time.Now,
		records: make(map[domain.SessionID]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save inserts or replaces the record under its session id.
func (s *InMemorySessionStore) Save(_ context.Context, rec *models.Record) error {
	if rec == nil || rec.Session == nil {
		return fmt.Errorf("save nil session: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Session.ID()] = &entry{record: rec, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// FindByID returns the record and refreshes its TTL. Expired records are
// reported as not found even before the sweeper removes them.
func (s *InMemorySessionStore) FindByID(_ context.Context, id domain.SessionID) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[id]
	now := s.now()
	if !ok || !now.Before(e.expiresAt) {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	e.expiresAt = now.Add(s.ttl)
	return e.record, nil
}

// Delete removes the record.
func (s *InMemorySessionStore) Delete(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// Sweep evicts every record expired at now and returns how many went.
func (s *InMemorySessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.records {
		if !now.Before(e.expiresAt) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored records, expired or not.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RunSweeper calls Sweep every interval until ctx is done. onSweep, when set,
// receives the eviction count of each non-empty sweep.
func (s *InMemorySessionStore) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
