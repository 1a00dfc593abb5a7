package repository

import (
	"context"
	"sync"
	"time"

	"classsite/internal/model"
)

// MemoryLoginAttemptRepository keeps the ledger in process memory behind a
// single mutex. It is only correct for a single server instance.
type MemoryLoginAttemptRepository struct {
	mu       sync.Mutex
	attempts map[string]*model.LoginAttempt
}

var _ LoginAttemptRepository = (*MemoryLoginAttemptRepository)(nil)

// NewMemoryLoginAttemptRepository creates an empty in-memory ledger.
func NewMemoryLoginAttemptRepository() *MemoryLoginAttemptRepository {
	return &MemoryLoginAttemptRepository{attempts: make(map[string]*model.LoginAttempt)}
}

func (r *MemoryLoginAttemptRepository) Get(_ context.Context, account string) (*model.LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt, ok := r.attempts[account]
	if !ok {
		return nil, nil
	}
	cp := *attempt
	return &cp, nil
}

func (r *MemoryLoginAttemptRepository) RecordFailure(_ context.Context, account string, now time.Time, policy model.LockoutPolicy) (*model.FailureResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt := r.entry(account, now)
	result := attempt.RegisterFailure(now, policy)
	if result.Counted {
		attempt.UpdatedAt = now
	}
	return &result, nil
}

func (r *MemoryLoginAttemptRepository) Reset(_ context.Context, account string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt := r.entry(account, now)
	attempt.RegisterSuccess(now)
	attempt.UpdatedAt = now
	return nil
}

func (r *MemoryLoginAttemptRepository) Unlock(_ context.Context, account string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if attempt, ok := r.attempts[account]; ok {
		attempt.FailedCount = 0
		attempt.LockedUntil = nil
	}
	return nil
}

// entry must be called with mu held.
func (r *MemoryLoginAttemptRepository) entry(account string, now time.Time) *model.LoginAttempt {
	attempt, ok := r.attempts[account]
	if !ok {
		attempt = &model.LoginAttempt{Account: account, CreatedAt: now, UpdatedAt: now}
		r.attempts[account] = attempt
	}
	return attempt
}
