package gatekeeper

import (
	"context"
	"net/http"
)

// threatStage is the late veto: a user classified HIGH or CRITICAL is denied
// even when every prior stage passed. A detector failure or timeout is
// treated the same way — uncertainty about a user's risk never resolves to
// an allow.
type threatStage struct{}

func (threatStage) name() string { return "threat" }

func (threatStage) run(ctx context.Context, g *Gate, sr *stageRequest) *Decision {
	if g.threats == nil {
		return nil
	}

	vctx, cancel := context.WithTimeout(ctx, g.cfg.CollaboratorTimeout)
	level, err := g.threats.UserThreatLevel(vctx, sr.payload.UserID)
	cancel()

	if err == nil && level != ThreatHigh && level != ThreatCritical {
		return nil
	}

	details := map[string]string{"level": string(level)}
	if err != nil {
		details["error"] = err.Error()
		details["level"] = "unknown"
	}
	g.emit(sr, EventHighThreatUserBlocked, SeverityCritical, sr.payload.UserID, details)
	g.metrics.Inc(MetricThreatBlocked)

	d := denied(http.StatusForbidden, CodeSecurityThreat, "access denied")
	return &d
}
