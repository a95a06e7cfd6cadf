package gatekeeper

import (
	"context"
	"net/http"
)

// SessionHeader and SessionCookieName are where the caller may supply a
// session identifier. The stage runs only when one is present and a
// [SessionChecker] is configured.
const (
	SessionHeader     = "X-Session-Id"
	SessionCookieName = "session_id"
)

// sessionStage confirms a caller-supplied session belongs to the
// authenticated user and role, then extends its liveness off the request
// path. Validation failure is an authorization failure, not a rate concern.
type sessionStage struct{}

func (sessionStage) name() string { return "session" }

func (sessionStage) run(ctx context.Context, g *Gate, sr *stageRequest) *Decision {
	if g.sessions == nil {
		return nil
	}

	sessionID := extractSessionID(sr.r)
	if sessionID == "" {
		return nil
	}

	sr.sessRole = primaryRole(sr.payload.Roles, g.roles)

	vctx, cancel := context.WithTimeout(ctx, g.cfg.CollaboratorTimeout)
	ok, err := g.sessions.Validate(vctx, sessionID, sr.payload.UserID, sr.sessRole)
	cancel()
	if err != nil || !ok {
		details := map[string]string{"session_id": sessionID}
		if err != nil {
			details["error"] = err.Error()
		}
		g.emit(sr, EventSessionValidationFailed, SeverityHigh, sr.payload.UserID, details)
		g.metrics.Inc(MetricSessionInvalid)
		d := denied(http.StatusUnauthorized, CodeSessionInvalid, "session validation failed")
		return &d
	}

	// Liveness extension is fire-and-forget: a failed touch must not
	// affect the decision, so it runs detached from the request context.
	go func(id string) {
		tctx, cancel := context.WithTimeout(context.Background(), g.cfg.CollaboratorTimeout)
		defer cancel()
		_ = g.sessions.Touch(tctx, id)
	}(sessionID)

	return nil
}

func extractSessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}
