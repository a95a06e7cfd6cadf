// Package abuse tracks failed token validations per client IP and reports
// when a client crosses the block threshold. The tracker is stateful and
// deliberately independent of the rate-limit counter store: rate limiting
// budgets request volume, this escalates repeated authentication failure.
package abuse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTrackerUnavailable indicates the tracking backend is unreachable.
var ErrTrackerUnavailable = errors.New("abuse tracker unavailable")

// Config tunes the failure window. Zero values take the defaults:
// 5 failures within 15 minutes block the client.
type Config struct {
	Threshold int
	Window    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	return c
}

// Tracker is the Redis-backed implementation, for multi-process deployments
// where all gateway instances must share one view of client abuse.
type Tracker struct {
	redis  redis.UniversalClient
	config Config
}

// NewTracker creates a Redis-backed tracker.
func NewTracker(redisClient redis.UniversalClient, cfg Config) *Tracker {
	return &Tracker{redis: redisClient, config: cfg.withDefaults()}
}

func (t *Tracker) key(ip string) string {
	return "abuse:" + ip
}

// RecordFailure increments the client's failure counter and reports whether
// the client is now blocked. The TTL rides on the first failure, so the
// counter self-resets one window after the client's first mistake.
func (t *Tracker) RecordFailure(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}

	count, err := t.redis.Incr(ctx, t.key(ip)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTrackerUnavailable, err)
	}

	if count == 1 {
		if err := t.redis.Expire(ctx, t.key(ip), t.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrTrackerUnavailable, err)
		}
	}

	return count >= int64(t.config.Threshold), nil
}

// Reset clears the failure counter, e.g. after a successful login.
func (t *Tracker) Reset(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	if err := t.redis.Del(ctx, t.key(ip)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTrackerUnavailable, err)
	}
	return nil
}

// MemoryTracker is the in-process implementation for single-instance
// deployments and tests.
type MemoryTracker struct {
	config Config
	mu     sync.Mutex
	counts map[string]*failureWindow
	now    func() time.Time
}

type failureWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryTracker creates an in-process tracker.
func NewMemoryTracker(cfg Config) *MemoryTracker {
	return &MemoryTracker{
		config: cfg.withDefaults(),
		counts: make(map[string]*failureWindow),
		now:    time.Now,
	}
}

// RecordFailure increments the client's failure counter and reports whether
// the client is now blocked.
func (t *MemoryTracker) RecordFailure(_ context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}

	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.counts[ip]
	if !ok || !now.Before(w.resetAt) {
		t.counts[ip] = &failureWindow{count: 1, resetAt: now.Add(t.config.Window)}
		return t.config.Threshold <= 1, nil
	}

	w.count++
	return w.count >= t.config.Threshold, nil
}

// Reset clears the failure counter.
func (t *MemoryTracker) Reset(_ context.Context, ip string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, ip)
	return nil
}
