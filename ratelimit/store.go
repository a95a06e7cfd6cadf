package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable indicates the counter backend is unreachable.
var ErrStoreUnavailable = errors.New("counter store unavailable")

// Window is the live state of one rate-limit key.
type Window struct {
	Count   int64
	ResetAt time.Time
}

// CounterStore provides atomic increment-and-read over rate-limit windows.
//
// Implementations must treat an entry whose ResetAt has passed as absent
// even before it is physically deleted, and must never lose a concurrent
// increment for the same key.
type CounterStore interface {
	// Increment adds one request to the key's current window, creating a
	// fresh window of the given duration when none is live, and returns
	// the resulting window state.
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)

	// Peek returns the current live window without consuming a slot.
	Peek(ctx context.Context, key string) (Window, bool, error)

	// Reset force-expires a key. Used by tests and administrative overrides.
	Reset(ctx context.Context, key string) error
}
