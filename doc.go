// Package gatekeeper provides a request-security gateway for multi-tenant
// business applications: fixed-window rate limiting keyed per actor and route
// class, and an ordered, short-circuiting authorization pipeline (CORS, rate
// limit, payload size, route classification, token validation, role hierarchy,
// session, threat level) that produces exactly one terminal decision per
// request.
//
// The package is designed for concurrent server workloads: Gate methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// gatekeeper is the public surface. It exposes [Gate], [Builder], [Config],
// the [Decision] value, and the collaborator contracts ([TokenValidator],
// [AttemptTracker], [RoleValidator], [SessionChecker], [ThreatDetector]).
// Backend implementations of those contracts live in the jwt, abuse, session,
// and roles subpackages; counter storage lives in ratelimit; HTTP adaptation
// lives in middleware.
//
// # What this package must NOT do
//
//   - Issue, store, or refresh credentials. Token issuance belongs to the
//     identity service; this gateway only verifies.
//   - Make fine-grained business authorization decisions. It gates coarse
//     route classes (public, authenticated, admin, master-admin) and nothing
//     finer.
//   - Allow a request on any uncertain path. Every stage's default branch is
//     deny; collaborator timeouts and panics terminate in a denial.
//
// # Performance contract
//
// Evaluate is the hot path. Stages before token validation perform no I/O
// beyond one counter-store round-trip; audit emission is asynchronous and can
// never block a decision.
package gatekeeper
