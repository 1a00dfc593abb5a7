package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classsite/internal/cache"
)

func TestTokenStore_WithoutRedisNothingIsRevoked(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	assert.False(t, store.IsRevoked(ctx, "jti-1"))
}

func TestTokenStore_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := cache.New(addr, os.Getenv("REDIS_PASSWORD"), 0)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	store := NewTokenStore(c)
	jti := uuid.New().String()

	assert.False(t, store.IsRevoked(ctx, jti))
	require.NoError(t, store.Revoke(ctx, jti, time.Minute))
	assert.True(t, store.IsRevoked(ctx, jti))

	// Already expired tokens are not stored.
	other := uuid.New().String()
	require.NoError(t, store.Revoke(ctx, other, 0))
	assert.False(t, store.IsRevoked(ctx, other))
}
