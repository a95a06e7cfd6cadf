package gatekeeper

import "context"

// ThreatLevel is an externally computed risk classification for a user.
// The pipeline treats it as an opaque veto signal: HIGH and CRITICAL deny.
type ThreatLevel string

const (
	// ThreatLow is an exported constant used by threat-level checks.
	ThreatLow ThreatLevel = "LOW"
	// ThreatMedium is an exported constant used by threat-level checks.
	ThreatMedium ThreatLevel = "MEDIUM"
	// ThreatHigh is an exported constant used by threat-level checks.
	ThreatHigh ThreatLevel = "HIGH"
	// ThreatCritical is an exported constant used by threat-level checks.
	ThreatCritical ThreatLevel = "CRITICAL"
)

// RouteClass is the coarse access tier a path classifies into.
type RouteClass uint8

const (
	// RoutePublic requires no authentication.
	RoutePublic RouteClass = iota
	// RouteAuthRequired requires a valid token of any role.
	RouteAuthRequired
	// RouteAdminOnly requires at least the admin role.
	RouteAdminOnly
	// RouteMasterAdminOnly requires the master-admin role.
	RouteMasterAdminOnly
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteAuthRequired:
		return "authRequired"
	case RouteAdminOnly:
		return "adminOnly"
	case RouteMasterAdminOnly:
		return "masterAdminOnly"
	default:
		return "unknown"
	}
}

// TokenPayload carries the decoded claims of a verified bearer token.
// It is read-only from the pipeline's perspective.
type TokenPayload struct {
	UserID        string
	Email         string
	Roles         []string
	IsMasterAdmin bool
}

// Identity is the augmented request context handed to business-logic
// handlers when the pipeline allows a request.
type Identity struct {
	UserID        string
	Email         string
	Roles         []string
	IsMasterAdmin bool
	Fingerprint   string
}

// TokenValidator verifies a bearer token and returns its payload.
// Failures are reported through the root sentinels: [ErrTokenExpired],
// [ErrTokenRevoked], [ErrTokenInvalid], or [ErrValidatorUnavailable].
// The default implementation is jwt.Manager, wired via [Builder.WithJWT].
type TokenValidator interface {
	Validate(ctx context.Context, token string) (TokenPayload, error)
}

// AttemptTracker records failed token validations per client IP and reports
// whether the client has crossed the block threshold. It is stateful and
// independent of the rate-limit counter store.
type AttemptTracker interface {
	RecordFailure(ctx context.Context, ip string) (blocked bool, err error)
}

// RoleValidator answers role-hierarchy questions for the coarse route tiers.
type RoleValidator interface {
	// HasAtLeast reports whether actual satisfies the required minimum role.
	HasAtLeast(actual, required string) bool
	// IsValidRole reports whether the role name exists in the hierarchy.
	IsValidRole(role string) bool
}

// SessionChecker validates that a caller-supplied session identifier belongs
// to the authenticated user, and extends session liveness on success.
type SessionChecker interface {
	Validate(ctx context.Context, sessionID, userID, role string) (bool, error)
	// Touch extends session liveness. Called fire-and-forget; errors are
	// observability-only and never affect the request decision.
	Touch(ctx context.Context, sessionID string) error
}

// ThreatDetector reports the current threat level for a user.
type ThreatDetector interface {
	UserThreatLevel(ctx context.Context, userID string) (ThreatLevel, error)
}
