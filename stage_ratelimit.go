package gatekeeper

import (
	"context"
	"net/http"
	"strconv"
)

// rateLimitStage draws one slot from the preset budget matching the route.
// It runs before authentication on purpose: a flood of requests with valid
// tokens must exhaust the same budget as a flood without them.
type rateLimitStage struct{}

func (rateLimitStage) name() string { return "ratelimit" }

func (rateLimitStage) run(ctx context.Context, g *Gate, sr *stageRequest) *Decision {
	limiter := g.limiters[g.cfg.Routes.presetFor(sr.path, sr.method)]
	if limiter == nil {
		return nil
	}

	out, err := limiter.Check(ctx, sr.r)
	if err != nil {
		// Counter backend failure is an infrastructure error: fail
		// closed rather than hand attackers a free window.
		g.emit(sr, EventMiddlewareError, SeverityHigh, "", map[string]string{
			"stage": "ratelimit",
			"error": err.Error(),
		})
		g.metrics.Inc(MetricInternalError)
		d := denied(http.StatusInternalServerError, CodeInternalError, "request could not be evaluated")
		return &d
	}

	sr.outcome = &out
	if out.Allowed {
		return nil
	}

	g.emit(sr, EventRateLimitExceeded, SeverityMedium, "", map[string]string{
		"key":   out.Key,
		"limit": strconv.Itoa(out.Limit),
	})
	g.metrics.Inc(MetricRateLimited)

	d := denied(http.StatusTooManyRequests, CodeRateLimited, out.Message)
	d.RetryAfter = out.RetryAfter
	return &d
}
