// Package quota tracks caller token consumption against subscription limits.
//
// The guard is an advisory pre-check plus an authoritative post-commit, not
// a hard reservation: Admit compares current usage plus the estimate against
// the limit before work starts, and Commit adds the actual cost after work
// completes. The two calls are deliberately not transactional — concurrent
// requests from one caller may both pass Admit and both Commit, so the limit
// is a soft cap. Usage is billed in arrears, which makes the brief overshoot
// acceptable.
package quota

import (
	"context"
	"fmt"
)

// Quota is one caller's consumption state.
type Quota struct {
	// Used is the total tokens committed so far.
	Used int64

	// Limit is the caller's token allowance. Zero means no allowance.
	Limit int64
}

// Remaining returns the tokens left before the limit, never negative.
func (q Quota) Remaining() int64 {
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// Store persists per-caller quota counters. Implementations must be safe
// for concurrent use.
type Store interface {
	// Quota returns the caller's current usage and limit. Unknown callers
	// report a zero quota rather than an error.
	Quota(ctx context.Context, callerID string) (Quota, error)

	// Add increments the caller's usage by tokens. It never decrements.
	Add(ctx context.Context, callerID string, tokens int64) error

	// SetLimit sets the caller's allowance, leaving usage untouched.
	SetLimit(ctx context.Context, callerID string, limit int64) error
}

// Guard performs admission checks and usage commits against a Store.
type Guard struct {
	store Store
}

// NewGuard creates a guard backed by the given store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Admit reports whether a request with the given estimated token cost may
// proceed: usage + estimate must not exceed the limit. A false result is a
// quota denial, not an error; the error return covers store failures only.
func (g *Guard) Admit(ctx context.Context, callerID string, estimatedTokens int64) (bool, error) {
	q, err := g.store.Quota(ctx, callerID)
	if err != nil {
		return false, fmt.Errorf("quota lookup for %s: %w", callerID, err)
	}
	if estimatedTokens < 0 {
		estimatedTokens = 0
	}
	return q.Used+estimatedTokens <= q.Limit, nil
}

// Commit adds the actual token cost to the caller's usage. It never rejects
// and never decreases the counter; negative input is treated as zero.
func (g *Guard) Commit(ctx context.Context, callerID string, actualTokens int64) error {
	if actualTokens <= 0 {
		return nil
	}
	if err := g.store.Add(ctx, callerID, actualTokens); err != nil {
		return fmt.Errorf("quota commit for %s: %w", callerID, err)
	}
	return nil
}

// Remaining returns the caller's unexhausted allowance.
func (g *Guard) Remaining(ctx context.Context, callerID string) (int64, error) {
	q, err := g.store.Quota(ctx, callerID)
	if err != nil {
		return 0, fmt.Errorf("quota lookup for %s: %w", callerID, err)
	}
	return q.Remaining(), nil
}
