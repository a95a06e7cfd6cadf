package ratelimit

import (
	"context"
	"net/http"
	"time"
)

// Preset names the five route-class limiter profiles the gateway derives.
type Preset string

const (
	// PresetAuth is the strict short-window profile for authentication endpoints.
	PresetAuth Preset = "auth"
	// PresetAPI is the moderate profile for general API traffic.
	PresetAPI Preset = "api"
	// PresetRead is the relaxed profile for read-only traffic.
	PresetRead Preset = "read"
	// PresetWrite is the strict profile for mutation traffic.
	PresetWrite Preset = "write"
	// PresetAdmin is the strictest profile, for administrative operations.
	PresetAdmin Preset = "admin"
)

// Budget is the policy half of a limiter: how many requests fit in one
// fixed window. Values are policy, not mechanism, and are tuned per preset.
type Budget struct {
	Window time.Duration
	Max    int
}

// Config fully describes one limiter. Immutable after construction.
type Config struct {
	Budget
	// Key selects the budget a request draws from. Defaults to [ByIP].
	Key KeyFunc
	// Message is the human-readable denial text surfaced to clients.
	Message string
}

// Outcome is the result of one limiter check.
type Outcome struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set only on denied outcomes: whole seconds (rounded
	// up) until the window resets.
	RetryAfter time.Duration
	// Key is the derived budget key, recorded for audit details.
	Key     string
	Message string
}

// Limiter checks requests against one fixed-window budget. Every check
// consumes a slot, allowed or denied.
type Limiter struct {
	store CounterStore
	cfg   Config
	now   func() time.Time
}

// New builds a limiter over the given store.
func New(store CounterStore, cfg Config) *Limiter {
	if cfg.Key == nil {
		cfg.Key = ByIP
	}
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Message == "" {
		cfg.Message = "too many requests"
	}
	return &Limiter{store: store, cfg: cfg, now: time.Now}
}

// Check increments the request's budget key and reports whether it is still
// within budget. The first request of a fresh window is always allowed.
func (l *Limiter) Check(ctx context.Context, r *http.Request) (Outcome, error) {
	key := l.cfg.Key(r)

	w, err := l.store.Increment(ctx, key, l.cfg.Window)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Allowed: w.Count <= int64(l.cfg.Max),
		Limit:   l.cfg.Max,
		ResetAt: w.ResetAt,
		Key:     key,
		Message: l.cfg.Message,
	}
	if remaining := int64(l.cfg.Max) - w.Count; remaining > 0 {
		out.Remaining = int(remaining)
	}
	if !out.Allowed {
		out.RetryAfter = retryAfter(l.now(), w.ResetAt)
	}

	return out, nil
}

// Reset clears the budget key the request maps to.
func (l *Limiter) Reset(ctx context.Context, r *http.Request) error {
	return l.store.Reset(ctx, l.cfg.Key(r))
}

func retryAfter(now, resetAt time.Time) time.Duration {
	d := resetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	// Round up to whole seconds for the Retry-After header.
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}
