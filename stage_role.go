package gatekeeper

import (
	"context"
	"net/http"
	"strings"
)

// roleStage enforces the minimum role on the two admin tiers. A token whose
// role set contains no role known to the hierarchy is a hierarchy violation;
// a known-but-insufficient role set is an admin access denial. The
// master-admin claim satisfies any tier.
type roleStage struct{}

func (roleStage) name() string { return "role" }

func (roleStage) run(_ context.Context, g *Gate, sr *stageRequest) *Decision {
	var required string
	switch sr.class {
	case RouteAdminOnly:
		required = g.cfg.Routes.AdminRole
	case RouteMasterAdminOnly:
		required = g.cfg.Routes.MasterAdminRole
	default:
		return nil
	}

	if sr.payload.IsMasterAdmin {
		return nil
	}

	anyValid := false
	for _, role := range sr.payload.Roles {
		role = strings.TrimSpace(role)
		if role == "" || !g.roles.IsValidRole(role) {
			continue
		}
		anyValid = true
		if g.roles.HasAtLeast(role, required) {
			return nil
		}
	}

	if !anyValid {
		g.emit(sr, EventHierarchyViolation, SeverityHigh, sr.payload.UserID, map[string]string{
			"roles": strings.Join(sr.payload.Roles, ","),
		})
		g.metrics.Inc(MetricHierarchyViolation)
		d := denied(http.StatusForbidden, CodeHierarchyViolation, "unrecognized role")
		return &d
	}

	g.emit(sr, EventAdminAccessDenied, SeverityHigh, sr.payload.UserID, map[string]string{
		"required": required,
		"roles":    strings.Join(sr.payload.Roles, ","),
	})
	g.metrics.Inc(MetricAdminDenied)
	d := denied(http.StatusForbidden, CodeAdminAccessDenied, "insufficient privileges")
	return &d
}
