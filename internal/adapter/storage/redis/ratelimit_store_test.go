package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimitStore(t *testing.T) (*RateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimitStore(client), mr
}

func TestRateLimitStore_AllowWithinLimit(t *testing.T) {
	store, _ := newTestRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Allow(ctx, "1.2.3.4", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	store, _ := newTestRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Allow(ctx, "1.2.3.4", 5, time.Minute)
		require.NoError(t, err)
	}

	result, err := store.Allow(ctx, "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(0), result.Remaining)
}

func TestRateLimitStore_KeysAreIndependent(t *testing.T) {
	store, _ := newTestRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Allow(ctx, "1.2.3.4", 5, time.Minute)
		require.NoError(t, err)
	}

	result, err := store.Allow(ctx, "5.6.7.8", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimitStore_Remaining(t *testing.T) {
	store, _ := newTestRateLimitStore(t)

	result, err := store.Allow(context.Background(), "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Remaining)
	assert.Equal(t, int64(5), result.Limit)
}
