package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// KeyFunc derives the rate-limit key a request draws its budget from.
// Strategies are deterministic, side-effect free, and never touch the store.
type KeyFunc func(r *http.Request) string

// UserIDHeader is the trusted identity header consulted by [ByUser].
// Upstream infrastructure (or the gateway itself, on re-entry) sets it;
// clients cannot, because the middleware strips inbound X-Auth-* headers.
const UserIDHeader = "X-Auth-User-Id"

// ClientIP extracts the caller address: first X-Forwarded-For hop, then the
// RemoteAddr host, then the literal "unknown".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// ByIP keys the budget per client address.
func ByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// ByUser keys the budget per authenticated user, falling back to a shared
// anonymous bucket when no identity is attached yet.
func ByUser(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return "user:" + id
	}
	return "user:anonymous"
}

// ByEndpointComposite keys the budget per (client, user, path) triple. The
// SHA-256 digest keeps keys short and makes accidental collisions between
// distinct triples practically impossible.
func ByEndpointComposite(r *http.Request) string {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		userID = "anonymous"
	}

	sum := sha256.Sum256([]byte(ClientIP(r) + "|" + userID + "|" + r.URL.Path))
	return "c:" + hex.EncodeToString(sum[:16])
}
