package gatekeeper

import (
	"context"
	"net/http"
)

// corsStage validates the Origin header for API-namespaced routes. The
// allow-list is enforced only in production; development logs the violation
// but lets the request proceed. Pre-flight requests that survive the origin
// check short-circuit to an allowed decision the adapter answers directly.
type corsStage struct{}

func (corsStage) name() string { return "cors" }

func (corsStage) run(_ context.Context, g *Gate, sr *stageRequest) *Decision {
	if !sr.isAPI {
		return nil
	}

	origin := sr.r.Header.Get("Origin")
	if origin != "" && !g.originAllowed(origin) {
		g.emit(sr, EventCORSViolation, SeverityMedium, "", map[string]string{
			"origin": origin,
		})
		if g.cfg.Production {
			g.metrics.Inc(MetricCORSViolation)
			d := denied(http.StatusForbidden, CodeCORSViolation, "origin not allowed")
			return &d
		}
	}

	if sr.method == http.MethodOptions {
		d := allowed(nil)
		d.Preflight = true
		return d
	}

	return nil
}

func (g *Gate) originAllowed(origin string) bool {
	for _, allowed := range g.cfg.CORS.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
