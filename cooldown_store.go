package adminauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "aac"

type redisCooldownStore struct {
	redis  redis.UniversalClient
	prefix string
}

func newRedisCooldownStore(client redis.UniversalClient) *redisCooldownStore {
	return &redisCooldownStore{
		redis:  client,
		prefix: cooldownKeyPrefix,
	}
}

func (s *redisCooldownStore) key(actorID string) string {
	return s.prefix + ":" + actorID
}

// Active reports whether the actor is inside an emergency cooldown window
// and, when active, how long remains. The key TTL is authoritative; the
// stored deadline only aids inspection.
func (s *redisCooldownStore) Active(ctx context.Context, actorID string, now time.Time) (bool, time.Duration, error) {
	remaining, err := s.redis.PTTL(ctx, s.key(actorID)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation, dependency calls, or security checks fail.
// Set does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *redisCooldownStore) Set(ctx context.Context, actorID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return errors.New("cooldown deadline already passed")
	}

	deadline := strconv.FormatInt(until.Unix(), 10)
	if err := s.redis.Set(ctx, s.key(actorID), deadline, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// SweepExpired is a no-op for the Redis-backed store because key TTLs handle
// eviction server-side.
func (s *redisCooldownStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
