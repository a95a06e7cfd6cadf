package gatekeeper

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// AuthCookieName is the cookie consulted when no Authorization header is
// present, and cleared on invalid-token page denials.
const AuthCookieName = "auth_token"

// tokenStage extracts and verifies the bearer token. Missing or invalid
// tokens deny API routes with JSON and redirect page routes to login.
// Invalid tokens also feed the per-IP failure tracker; a client past the
// block threshold gets the harsher blocked denial regardless of anything
// else it sends.
type tokenStage struct{}

func (tokenStage) name() string { return "token" }

func (tokenStage) run(ctx context.Context, g *Gate, sr *stageRequest) *Decision {
	token := extractToken(sr.r)
	if token == "" {
		g.emit(sr, EventAuthMissing, SeverityMedium, "", nil)
		g.metrics.Inc(MetricAuthMissing)
		return g.unauthenticated(sr, CodeAuthRequired, "authentication required", false)
	}

	vctx, cancel := context.WithTimeout(ctx, g.cfg.CollaboratorTimeout)
	payload, err := g.validator.Validate(vctx, token)
	cancel()
	if err != nil {
		return g.tokenRejected(ctx, sr, err)
	}

	sr.payload = &payload
	return nil
}

func (g *Gate) tokenRejected(ctx context.Context, sr *stageRequest, cause error) *Decision {
	if g.tracker != nil {
		tctx, cancel := context.WithTimeout(ctx, g.cfg.CollaboratorTimeout)
		blocked, trackErr := g.tracker.RecordFailure(tctx, sr.ip)
		cancel()
		// A tracker outage only forfeits the escalation, never the denial.
		if trackErr == nil && blocked {
			g.emit(sr, EventAuthBlocked, SeverityHigh, "", map[string]string{
				"reason": tokenFailureReason(cause),
			})
			g.metrics.Inc(MetricAuthBlocked)

			d := denied(http.StatusTooManyRequests, CodeAuthBlocked, "too many failed attempts")
			d.RetryAfter = g.cfg.BlockRetryAfter
			return &d
		}
	}

	g.emit(sr, EventAuthInvalid, SeverityMedium, "", map[string]string{
		"reason": tokenFailureReason(cause),
	})
	g.metrics.Inc(MetricAuthInvalid)
	return g.unauthenticated(sr, CodeAuthInvalid, "invalid or expired token", true)
}

// unauthenticated maps an authentication failure onto the route style:
// JSON 401 for API routes, a login redirect for page routes.
func (g *Gate) unauthenticated(sr *stageRequest, code, message string, clearSession bool) *Decision {
	if sr.isAPI {
		d := denied(http.StatusUnauthorized, code, message)
		d.ClearSession = clearSession
		return &d
	}
	return redirected(g.cfg.Routes.LoginPath, clearSession)
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrValidatorUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "validator_unavailable"
	default:
		return "invalid"
	}
}

func extractToken(r *http.Request) string {
	const bearer = "Bearer "
	if value := r.Header.Get("Authorization"); strings.HasPrefix(value, bearer) {
		if token := value[len(bearer):]; token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}
