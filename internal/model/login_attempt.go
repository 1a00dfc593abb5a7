package model

import "time"

const (
	// DefaultMaxFailures is the number of consecutive failures that locks an account.
	DefaultMaxFailures = 6
	// DefaultLockDuration is how long a lockout lasts.
	DefaultLockDuration = 900 * time.Second
)

// LockoutPolicy configures brute-force throttling.
type LockoutPolicy struct {
	MaxFailures  int
	LockDuration time.Duration
}

// DefaultLockoutPolicy returns the policy used when nothing is configured.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailures:  DefaultMaxFailures,
		LockDuration: DefaultLockDuration,
	}
}

// LoginAttempt is the per-account failure ledger. It is keyed by account name,
// not user id, so that unknown accounts are throttled the same way as known ones.
type LoginAttempt struct {
	Account       string     `json:"account" gorm:"primaryKey;size:64"`
	FailedCount   int        `json:"failedCount" gorm:"not null;default:0"`
	LockedUntil   *time.Time `json:"lockedUntil,omitempty" gorm:"index"`
	Lockouts      int        `json:"lockouts" gorm:"not null;default:0"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsLocked reports whether the lock is still in force at now.
// A lock expiry in the past is the same as no lock.
func (a *LoginAttempt) IsLocked(now time.Time) bool {
	return a != nil && a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// RetryAfter returns the time left on the lock, or zero when not locked.
func (a *LoginAttempt) RetryAfter(now time.Time) time.Duration {
	if !a.IsLocked(now) {
		return 0
	}
	return a.LockedUntil.Sub(now)
}

// FailureResult describes what a failed attempt did to the ledger.
type FailureResult struct {
	Attempt LoginAttempt
	// Counted is false when the account was already locked and the
	// failure was therefore not applied.
	Counted bool
	// Locked is true when this failure reached the threshold.
	Locked bool
}

// RegisterFailure applies one failed attempt at now. Callers must hold
// whatever lock makes the read-modify-write atomic for this account.
func (a *LoginAttempt) RegisterFailure(now time.Time, policy LockoutPolicy) FailureResult {
	if a.IsLocked(now) {
		return FailureResult{Attempt: *a}
	}

	a.LockedUntil = nil
	a.FailedCount++
	failedAt := now
	a.LastFailureAt = &failedAt

	locked := false
	if a.FailedCount >= policy.MaxFailures {
		until := now.Add(policy.LockDuration)
		a.LockedUntil = &until
		a.FailedCount = 0
		a.Lockouts++
		locked = true
	}
	return FailureResult{Attempt: *a, Counted: true, Locked: locked}
}

// RegisterSuccess clears the counter and any lock.
func (a *LoginAttempt) RegisterSuccess(now time.Time) {
	a.FailedCount = 0
	a.LockedUntil = nil
	succeededAt := now
	a.LastSuccessAt = &succeededAt
}
