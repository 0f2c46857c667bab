package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter counts requests per key in fixed windows stored in Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// RateDecision is the outcome of a single Allow call.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow registers one request for key and reports whether it fits into the current window
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	key = "rate:" + key

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return RateDecision{}, fmt.Errorf("increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return RateDecision{}, fmt.Errorf("set rate window: %w", err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return RateDecision{}, fmt.Errorf("get rate window ttl: %w", err)
	}
	if ttl < 0 {
		// counter lost its expiry, start a fresh window
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return RateDecision{}, fmt.Errorf("set rate window: %w", err)
		}
		ttl = l.window
	}

	return RateDecision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: max(l.limit-int(count), 0),
		ResetIn:   ttl,
	}, nil
}
