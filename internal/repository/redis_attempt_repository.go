package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "classsite/internal/errors"
	"classsite/internal/model"
)

const ledgerKeyPrefix = "ledger:"

// Hash fields: count, locked_until, lockouts, last_failure, last_success.
// Instants are unix milliseconds, 0 meaning unset.
var recordFailureScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local lockMs = tonumber(ARGV[3])

local lockedUntil = tonumber(redis.call('HGET', KEYS[1], 'locked_until') or '0')
local lockouts = tonumber(redis.call('HGET', KEYS[1], 'lockouts') or '0')
local lastFailure = tonumber(redis.call('HGET', KEYS[1], 'last_failure') or '0')
if lockedUntil > now then
	local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
	return {0, 0, count, lockedUntil, lockouts, lastFailure}
end

local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
local locked = 0
lockedUntil = 0
if count >= max then
	lockedUntil = now + lockMs
	count = 0
	locked = 1
	lockouts = redis.call('HINCRBY', KEYS[1], 'lockouts', 1)
end
redis.call('HSET', KEYS[1], 'count', count, 'locked_until', lockedUntil, 'last_failure', now)
return {1, locked, count, lockedUntil, lockouts, now}
`)

type redisLoginAttemptRepository struct {
	client *redis.Client
}

// NewRedisLoginAttemptRepository builds a ledger kept in redis hashes.
// Failures are applied by a single Lua script so they are atomic on the server.
func NewRedisLoginAttemptRepository(client *redis.Client) LoginAttemptRepository {
	return &redisLoginAttemptRepository{client: client}
}

func (r *redisLoginAttemptRepository) Get(ctx context.Context, account string) (*model.LoginAttempt, error) {
	result, err := r.client.HGetAll(ctx, ledgerKeyPrefix+account).Result()
	if err != nil {
		return nil, apperrors.Storage("get login attempts", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return parseLedger(account, result), nil
}

func (r *redisLoginAttemptRepository) RecordFailure(ctx context.Context, account string, now time.Time, policy model.LockoutPolicy) (*model.FailureResult, error) {
	res, err := recordFailureScript.Run(ctx, r.client,
		[]string{ledgerKeyPrefix + account},
		now.UnixMilli(), policy.MaxFailures, policy.LockDuration.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, apperrors.Storage("record login failure", err)
	}
	if len(res) != 6 {
		return nil, apperrors.Storage("record login failure", fmt.Errorf("unexpected script reply %v", res))
	}

	attempt := model.LoginAttempt{
		Account:       account,
		FailedCount:   int(res[2]),
		LockedUntil:   millisToTime(res[3]),
		Lockouts:      int(res[4]),
		LastFailureAt: millisToTime(res[5]),
	}
	return &model.FailureResult{
		Attempt: attempt,
		Counted: res[0] == 1,
		Locked:  res[1] == 1,
	}, nil
}

func (r *redisLoginAttemptRepository) Reset(ctx context.Context, account string, now time.Time) error {
	err := r.client.HSet(ctx, ledgerKeyPrefix+account, map[string]interface{}{
		"count":        0,
		"locked_until": 0,
		"last_success": now.UnixMilli(),
	}).Err()
	if err != nil {
		return apperrors.Storage("reset login attempts", err)
	}
	return nil
}

func (r *redisLoginAttemptRepository) Unlock(ctx context.Context, account string) error {
	err := r.client.HSet(ctx, ledgerKeyPrefix+account, map[string]interface{}{
		"count":        0,
		"locked_until": 0,
	}).Err()
	if err != nil {
		return apperrors.Storage("unlock account", err)
	}
	return nil
}

func parseLedger(account string, fields map[string]string) *model.LoginAttempt {
	attempt := &model.LoginAttempt{Account: account}
	attempt.FailedCount = int(parseInt(fields["count"]))
	attempt.Lockouts = int(parseInt(fields["lockouts"]))
	attempt.LockedUntil = millisToTime(parseInt(fields["locked_until"]))
	attempt.LastFailureAt = millisToTime(parseInt(fields["last_failure"]))
	attempt.LastSuccessAt = millisToTime(parseInt(fields["last_success"]))
	return attempt
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func millisToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
