package gatekeeper

import (
	"context"
	"net/http"
	"strings"

	"github.com/crazybass81/dot-gatekeeper/ratelimit"
	"github.com/google/uuid"
)

// stage is one step of the ordered authorization pipeline. A nil return
// continues to the next stage; a non-nil return is the terminal decision.
// The stage order is a security contract: CORS before rate limiting before
// size before classification before token before role before session before
// threat. Reordering changes the guarantees, so the list is fixed at build
// time and not exposed for rearrangement.
type stage interface {
	name() string
	run(ctx context.Context, g *Gate, sr *stageRequest) *Decision
}

// stageRequest is the per-request scratch state threaded through the stages.
// It is confined to one goroutine; stages communicate only through it.
type stageRequest struct {
	r      *http.Request
	ip     string
	path   string
	method string
	isAPI  bool

	class    RouteClass
	payload  *TokenPayload
	outcome  *ratelimit.Outcome
	sessRole string
}

func newStageRequest(r *http.Request) *stageRequest {
	return &stageRequest{
		r:      r,
		ip:     ratelimit.ClientIP(r),
		path:   r.URL.Path,
		method: r.Method,
	}
}

func pipelineStages() []stage {
	return []stage{
		bypassStage{},
		corsStage{},
		rateLimitStage{},
		sizeStage{},
		classifyStage{},
		tokenStage{},
		roleStage{},
		sessionStage{},
		threatStage{},
		allowStage{},
	}
}

// bypassStage lets static assets and framework-internal paths through with
// no rate limiting and no audit.
type bypassStage struct{}

func (bypassStage) name() string { return "bypass" }

func (bypassStage) run(_ context.Context, g *Gate, sr *stageRequest) *Decision {
	if !g.cfg.Routes.isBypass(sr.path) {
		return nil
	}
	g.metrics.Inc(MetricBypassed)
	d := allowed(nil)
	d.Bypass = true
	return d
}

// classifyStage resolves the route class; public routes terminate here.
type classifyStage struct{}

func (classifyStage) name() string { return "classify" }

func (classifyStage) run(_ context.Context, g *Gate, sr *stageRequest) *Decision {
	sr.class = g.cfg.Routes.classify(sr.path)
	if sr.class == RoutePublic {
		g.metrics.Inc(MetricAllowed)
		return allowed(nil)
	}
	return nil
}

// allowStage is the terminal success: it mints the augmented identity for
// downstream business logic. Success is not audited at this layer; the
// final data-access point owns success logging.
type allowStage struct{}

func (allowStage) name() string { return "allow" }

func (allowStage) run(_ context.Context, g *Gate, sr *stageRequest) *Decision {
	g.metrics.Inc(MetricAllowed)
	return allowed(&Identity{
		UserID:        sr.payload.UserID,
		Email:         sr.payload.Email,
		Roles:         append([]string(nil), sr.payload.Roles...),
		IsMasterAdmin: sr.payload.IsMasterAdmin,
		Fingerprint:   uuid.NewString(),
	})
}

// primaryRole picks the highest valid role from the token's role set, used
// for session-binding checks.
func primaryRole(roles []string, validator RoleValidator) string {
	best := ""
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" || !validator.IsValidRole(role) {
			continue
		}
		if best == "" || validator.HasAtLeast(role, best) {
			best = role
		}
	}
	return best
}
