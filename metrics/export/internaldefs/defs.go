// Package internaldefs holds the shared metric definitions consumed by the
// prometheus and otel exporters. It exists so both exporters render the
// same names and bucket layout without importing each other.
package internaldefs

import (
	gatekeeper "github.com/crazybass81/dot-gatekeeper"
)

// CounterDef binds a metric ID to its exported name and help text.
type CounterDef struct {
	ID   gatekeeper.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram metric ID to its exported name and help text.
type HistogramDef struct {
	ID   gatekeeper.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: gatekeeper.MetricAllowed, Name: "gatekeeper_allowed_total", Help: "Requests allowed through the pipeline."},
	{ID: gatekeeper.MetricBypassed, Name: "gatekeeper_bypassed_total", Help: "Static-asset requests that skipped the pipeline."},
	{ID: gatekeeper.MetricCORSViolation, Name: "gatekeeper_cors_violation_total", Help: "Requests denied by origin validation."},
	{ID: gatekeeper.MetricRateLimited, Name: "gatekeeper_rate_limited_total", Help: "Requests denied by the rate limiter."},
	{ID: gatekeeper.MetricOversized, Name: "gatekeeper_oversized_total", Help: "Requests denied by the payload-size check."},
	{ID: gatekeeper.MetricAuthMissing, Name: "gatekeeper_auth_missing_total", Help: "Guarded requests carrying no bearer token."},
	{ID: gatekeeper.MetricAuthInvalid, Name: "gatekeeper_auth_invalid_total", Help: "Invalid, expired, or revoked tokens."},
	{ID: gatekeeper.MetricAuthBlocked, Name: "gatekeeper_auth_blocked_total", Help: "Clients denied by the failed-attempt block."},
	{ID: gatekeeper.MetricAdminDenied, Name: "gatekeeper_admin_denied_total", Help: "Role checks failed on admin routes."},
	{ID: gatekeeper.MetricHierarchyViolation, Name: "gatekeeper_hierarchy_violation_total", Help: "Tokens carrying roles unknown to the hierarchy."},
	{ID: gatekeeper.MetricSessionInvalid, Name: "gatekeeper_session_invalid_total", Help: "Failed session validations."},
	{ID: gatekeeper.MetricThreatBlocked, Name: "gatekeeper_threat_blocked_total", Help: "Threat-level vetoes."},
	{ID: gatekeeper.MetricInternalError, Name: "gatekeeper_internal_error_total", Help: "Recovered pipeline failures."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: gatekeeper.MetricEvalLatency, Name: "gatekeeper_eval_latency_seconds", Help: "Pipeline evaluation latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bound spellings usable in metric names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
