package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter enforces the cap across instances with an atomic counter keyed
// by identifier and window bucket. It fails open on backend errors so a Redis
// outage degrades to unlimited rather than rejecting all traffic.
type RedisLimiter struct {
	client      *redis.Client
	window      time.Duration
	maxRequests int
	logger      *slog.Logger
}

func NewRedisLimiter(client *redis.Client, window time.Duration, maxRequests int, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		window:      window,
		maxRequests: maxRequests,
		logger:      logger,
	}
}

func (l *RedisLimiter) key(identifier string, now time.Time) string {
	bucket := now.UnixMilli() / l.window.Milliseconds()
	return fmt.Sprintf("ratelimit:%s:%d", identifier, bucket)
}

func (l *RedisLimiter) IsRateLimited(ctx context.Context, identifier string) bool {
	key := l.key(identifier, time.Now())

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Error("rate limit backend unavailable", "error", err)
		return false
	}
	if count == 1 {
		// Two windows covers a bucket that straddles the boundary.
		if err := l.client.Expire(ctx, key, 2*l.window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit key expiry", "error", err)
		}
	}

	if count > int64(l.maxRequests) {
		// The rejected attempt must not consume a slot.
		if err := l.client.Decr(ctx, key).Err(); err != nil {
			l.logger.Warn("failed to refund rate limit slot", "error", err)
		}
		return true
	}
	return false
}

func (l *RedisLimiter) Remaining(ctx context.Context, identifier string) int {
	key := l.key(identifier, time.Now())

	count, err := l.client.Get(ctx, key).Int64()
	if err != nil && err != redis.Nil {
		l.logger.Error("rate limit backend unavailable", "error", err)
		return l.maxRequests
	}

	remaining := l.maxRequests - int(count)
	if remaining < 0 {
		return 0
	}
	return remaining
}
