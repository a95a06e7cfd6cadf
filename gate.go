package gatekeeper

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crazybass81/dot-gatekeeper/ratelimit"
)

// Gate is the assembled request-security engine. Construct it through
// [Builder.Build]; after that every method is safe for concurrent use.
type Gate struct {
	cfg      Config
	limiters map[ratelimit.Preset]*ratelimit.Limiter
	store    ratelimit.CounterStore

	validator TokenValidator
	tracker   AttemptTracker
	roles     RoleValidator
	sessions  SessionChecker
	threats   ThreatDetector

	audit   *auditDispatcher
	metrics *Metrics
	stages  []stage

	stopJanitor func()
}

// Config returns a copy of the gate's configuration.
func (g *Gate) Config() Config {
	if g == nil {
		return Config{}
	}
	return cloneConfig(g.cfg)
}

// Evaluate runs the request through the ordered pipeline and returns the
// single terminal decision. Any panic inside a stage is recovered, audited
// as MIDDLEWARE_ERROR with no internal detail leaked, and converted to a
// 500 denial.
func (g *Gate) Evaluate(r *http.Request) (d Decision) {
	if g == nil {
		return denied(http.StatusInternalServerError, CodeInternalError, "gateway unavailable")
	}

	start := time.Now()
	sr := newStageRequest(r)
	sr.isAPI = strings.HasPrefix(sr.path, g.cfg.Routes.APIPrefix)

	defer func() {
		if rec := recover(); rec != nil {
			g.emit(sr, EventMiddlewareError, SeverityHigh, "", map[string]string{
				"panic": fmt.Sprint(rec),
			})
			g.metrics.Inc(MetricInternalError)
			d = denied(http.StatusInternalServerError, CodeInternalError, "internal error")
		}
		if d.RateLimit == nil {
			d.RateLimit = sr.outcome
		}
		g.metrics.Observe(MetricEvalLatency, time.Since(start))
	}()

	for _, st := range g.stages {
		if term := st.run(r.Context(), g, sr); term != nil {
			return *term
		}
	}

	// The stage list always ends in allowStage; reaching here means the
	// pipeline was assembled wrong. Deny, never fall open.
	g.metrics.Inc(MetricInternalError)
	return denied(http.StatusInternalServerError, CodeInternalError, "no decision")
}

// Close stops the counter-store janitor (when the gate owns one) and drains
// the audit dispatcher.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	if g.stopJanitor != nil {
		g.stopJanitor()
	}
	if g.audit != nil {
		g.audit.Close()
	}
}

// MetricsSnapshot exposes the current counters for the exporters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports how many security events were shed under
// dispatcher backpressure.
func (g *Gate) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// emit constructs and dispatches one security event. Fire-and-forget: the
// dispatcher owns delivery and the decision never waits on it.
func (g *Gate) emit(sr *stageRequest, eventType string, severity Severity, userID string, details map[string]string) {
	if g.audit == nil {
		return
	}
	g.audit.Emit(sr.r.Context(), SecurityEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Severity:  severity,
		IP:        sr.ip,
		UserID:    userID,
		Endpoint:  sr.path,
		Method:    sr.method,
		Details:   details,
	})
}
