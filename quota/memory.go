package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps quota counters in process memory. It is the default
// store for single-instance deployments and for tests; counters reset on
// restart, which is acceptable because usage is journaled separately.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Quota
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Quota)}
}

// Quota returns the caller's counters. Unknown callers get a zero quota.
func (s *MemoryStore) Quota(ctx context.Context, callerID string) (Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.entries[callerID]; ok {
		return *q, nil
	}
	return Quota{}, nil
}

// Add increments the caller's usage.
func (s *MemoryStore) Add(ctx context.Context, callerID string, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.entry(callerID)
	q.Used += tokens
	return nil
}

// SetLimit sets the caller's allowance.
func (s *MemoryStore) SetLimit(ctx context.Context, callerID string, limit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(callerID).Limit = limit
	return nil
}

// SetUsed overwrites the caller's usage counter. Intended for seeding test
// fixtures and for reconciliation jobs, not for the request path.
func (s *MemoryStore) SetUsed(ctx context.Context, callerID string, used int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(callerID).Used = used
	return nil
}

// entry returns the caller's record, creating it if needed.
// Callers must hold the write lock.
func (s *MemoryStore) entry(callerID string) *Quota {
	q, ok := s.entries[callerID]
	if !ok {
		q = &Quota{}
		s.entries[callerID] = q
	}
	return q
}
