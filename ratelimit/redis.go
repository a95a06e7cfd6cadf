package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a [CounterStore] backed by Redis, for deployments where the
// rate-limit budget must be shared across processes. Window expiry rides on
// key TTLs, so there is no janitor to run.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed counter store. Keys are namespaced
// under prefix (default "grl").
func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "grl"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Increment atomically bumps the key's counter, attaching the window TTL on
// the first hit. INCR+PTTL run in one pipeline round-trip.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	k := s.key(key)

	pipe := s.redis.Pipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	count, err := incr.Result()
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	remaining, err := ttl.Result()
	if err != nil || remaining < 0 {
		// PTTL reports a negative duration for keys without an expiry:
		// this is the first hit of a fresh window.
		remaining = window
		if err := s.redis.PExpire(ctx, k, window).Err(); err != nil {
			return Window{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return Window{Count: count, ResetAt: s.now().Add(remaining)}, nil
}

// Peek returns the live window for key without consuming a slot.
func (s *RedisStore) Peek(ctx context.Context, key string) (Window, bool, error) {
	k := s.key(key)

	pipe := s.redis.Pipeline()
	get := pipe.Get(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return Window{}, false, nil
		}
		return Window{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	count, err := get.Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Window{}, false, nil
		}
		return Window{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	remaining, err := ttl.Result()
	if err != nil || remaining <= 0 {
		return Window{}, false, nil
	}

	return Window{Count: count, ResetAt: s.now().Add(remaining)}, true, nil
}

// Reset force-expires a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
