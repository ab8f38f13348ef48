package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the shared fixed-window store backed by Redis. The
// counter key embeds the window start, and INCR+EXPIRE run in one pipeline
// so check-and-increment is a single atomic round trip. A read-then-write
// would race across replicas.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

// NewRedisLimiter creates a new RedisLimiter instance
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

// Check counts one request for userID within the current window.
func (l *RedisLimiter) Check(ctx context.Context, userID string) (Result, error) {
	now := time.Now()
	windowStart := now.Truncate(l.cfg.Window)
	key := fmt.Sprintf("rate_limit:%s:%s:%d", l.cfg.Action, userID, windowStart.Unix())

	pipe := l.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	// Expiry at 2x window doubles as the stale-key sweep.
	pipe.Expire(ctx, key, 2*l.cfg.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(incrCmd.Val())
	remaining := l.cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= l.cfg.Limit,
		Remaining: remaining,
		ResetIn:   time.Until(windowStart.Add(l.cfg.Window)),
	}, nil
}
