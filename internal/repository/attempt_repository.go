package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classsite/internal/model"
)

// LoginAttemptRepository is the per-account failure ledger.
// RecordFailure must be atomic per account: concurrent failures are all
// counted and the lock decision is made on the post-increment value.
type LoginAttemptRepository interface {
	// Get returns nil when the account has no ledger entry.
	Get(ctx context.Context, account string) (*model.LoginAttempt, error)
	RecordFailure(ctx context.Context, account string, now time.Time, policy model.LockoutPolicy) (*model.FailureResult, error)
	// Reset clears the counter and lock and records a successful login.
	Reset(ctx context.Context, account string, now time.Time) error
	// Unlock clears the counter and lock without recording a login.
	Unlock(ctx context.Context, account string) error
}

type loginAttemptRepository struct {
	db *gorm.DB
}

// NewLoginAttemptRepository builds the GORM ledger. Updates run in a
// transaction holding a row lock on the account.
func NewLoginAttemptRepository(db *gorm.DB) LoginAttemptRepository {
	return &loginAttemptRepository{db: db}
}

func (r *loginAttemptRepository) Get(ctx context.Context, account string) (*model.LoginAttempt, error) {
	var attempt model.LoginAttempt
	err := r.db.WithContext(ctx).Where("account = ?", account).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get login attempts", err)
	}
	return &attempt, nil
}

func (r *loginAttemptRepository) RecordFailure(ctx context.Context, account string, now time.Time, policy model.LockoutPolicy) (*model.FailureResult, error) {
	var result model.FailureResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Make sure there is a row to lock.
		seed := model.LoginAttempt{Account: account}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var attempt model.LoginAttempt
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account = ?", account).First(&attempt).Error; err != nil {
			return err
		}

		result = attempt.RegisterFailure(now, policy)
		if !result.Counted {
			return nil
		}

		return tx.Model(&model.LoginAttempt{}).Where("account = ?", account).Updates(map[string]interface{}{
			"failed_count":    attempt.FailedCount,
			"locked_until":    attempt.LockedUntil,
			"lockouts":        attempt.Lockouts,
			"last_failure_at": attempt.LastFailureAt,
		}).Error
	})
	if err != nil {
		return nil, translate("record login failure", err)
	}
	return &result, nil
}

func (r *loginAttemptRepository) Reset(ctx context.Context, account string, now time.Time) error {
	attempt := model.LoginAttempt{Account: account}
	attempt.RegisterSuccess(now)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"failed_count":    0,
			"locked_until":    nil,
			"last_success_at": now,
			"updated_at":      now,
		}),
	}).Create(&attempt).Error
	return translate("reset login attempts", err)
}

func (r *loginAttemptRepository) Unlock(ctx context.Context, account string) error {
	err := r.db.WithContext(ctx).Model(&model.LoginAttempt{}).
		Where("account = ?", account).
		Updates(map[string]interface{}{
			"failed_count": 0,
			"locked_until": nil,
		}).Error
	return translate("unlock account", err)
}
