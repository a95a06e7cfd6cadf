package gatekeeper

import (
	"net/http"
	"time"

	"github.com/crazybass81/dot-gatekeeper/ratelimit"
)

// DecisionKind is the terminal state of one pipeline evaluation.
type DecisionKind uint8

const (
	// DecisionAllow hands the request to business logic.
	DecisionAllow DecisionKind = iota
	// DecisionDeny terminates the request with an error response.
	DecisionDeny
	// DecisionRedirect sends a page request to the login path.
	DecisionRedirect
)

// Machine-readable denial codes carried in the JSON error body.
const (
	CodeCORSViolation      = "CORS_VIOLATION"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeAuthInvalid        = "AUTH_INVALID"
	CodeAuthBlocked        = "AUTH_BLOCKED"
	CodeAdminAccessDenied  = "ADMIN_ACCESS_DENIED"
	CodeHierarchyViolation = "HIERARCHY_VIOLATION"
	CodeSessionInvalid     = "SESSION_INVALID"
	CodeSecurityThreat     = "SECURITY_THREAT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Decision is the single terminal result of evaluating one request.
// Exactly one Decision is produced per request; there are no partial states.
type Decision struct {
	Kind DecisionKind

	// Deny fields.
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration

	// Redirect target.
	Location string

	// Identity is set on allow for authenticated routes; nil for public
	// and bypassed requests.
	Identity *Identity

	// RateLimit carries the limiter outcome when the request consumed a
	// slot, so the adapter can expose back-off headers on any decision.
	RateLimit *ratelimit.Outcome

	// Preflight marks an allowed CORS pre-flight that must be answered
	// by the adapter instead of reaching business logic.
	Preflight bool

	// Bypass marks a static-asset allow that skipped the pipeline.
	Bypass bool

	// ClearSession tells the adapter to drop auth cookies on the way out.
	ClearSession bool
}

func allowed(id *Identity) *Decision {
	return &Decision{Kind: DecisionAllow, Identity: id, Status: http.StatusOK}
}

func denied(status int, code, message string) Decision {
	return Decision{
		Kind:    DecisionDeny,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func redirected(location string, clearSession bool) *Decision {
	return &Decision{
		Kind:         DecisionRedirect,
		Status:       http.StatusFound,
		Location:     location,
		ClearSession: clearSession,
	}
}
