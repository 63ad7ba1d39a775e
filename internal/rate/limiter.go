package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable is an exported constant or variable used by the rate limiter.
	ErrRedisUnavailable = errors.New("rate limiter redis unavailable")
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Limiter enforces a fixed-window budget per key using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func limiterKey(ip, bucket, actorID string) string {
	return "aarl:" + bucket + ":" + ip + ":" + actorID
}

// CheckAndConsume records one attempt for the triple and reports whether it
// fit in the window budget. When it did not, the remaining window TTL is
// returned so callers can surface a retry-after hint.
func (l *Limiter) CheckAndConsume(ctx context.Context, ip, bucket, actorID string) (bool, time.Duration, error) {
	key := limiterKey(ip, bucket, actorID)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count <= int64(l.config.MaxAttempts) {
		return true, 0, nil
	}

	retryAfter, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if retryAfter <= 0 {
		retryAfter = l.config.Window
	}

	return false, retryAfter, nil
}

// Reset clears the counter for the triple.
func (l *Limiter) Reset(ctx context.Context, ip, bucket, actorID string) error {
	if err := l.redis.Del(ctx, limiterKey(ip, bucket, actorID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
