package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	mr, client := setupMiniredis(t)
	limiter := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 3, d.Limit)

	assert.True(t, mr.TTL("rate:user-1") > 0)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	_, client := setupMiniredis(t)
	limiter := NewRateLimiter(client, 1, time.Minute)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	mr, client := setupMiniredis(t)
	limiter := NewRateLimiter(client, 1, 10*time.Second)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	d, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	mr.FastForward(11 * time.Second)

	d, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiter_RedisDown(t *testing.T) {
	mr, client := setupMiniredis(t)
	limiter := NewRateLimiter(client, 1, time.Minute)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}
