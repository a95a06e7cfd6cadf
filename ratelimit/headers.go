package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// WriteHeaders exposes the outcome for client back-off in both the standard
// draft scheme (RateLimit-*) and the legacy scheme (X-RateLimit-*); varied
// clients understand one or the other, so both are always sent.
func WriteHeaders(h http.Header, out Outcome) {
	limit := strconv.Itoa(out.Limit)
	remaining := strconv.Itoa(out.Remaining)
	resetIn := strconv.FormatInt(secondsUntil(out.ResetAt), 10)

	h.Set("RateLimit-Limit", limit)
	h.Set("RateLimit-Remaining", remaining)
	h.Set("RateLimit-Reset", resetIn)

	h.Set("X-RateLimit-Limit", limit)
	h.Set("X-RateLimit-Remaining", remaining)
	h.Set("X-RateLimit-Reset", strconv.FormatInt(out.ResetAt.Unix(), 10))

	if out.RetryAfter > 0 {
		h.Set("Retry-After", strconv.FormatInt(int64(out.RetryAfter/time.Second), 10))
	}
}

func secondsUntil(t time.Time) int64 {
	d := time.Until(t)
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
