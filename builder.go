package gatekeeper

import (
	"context"
	"errors"
	"time"

	"github.com/crazybass81/dot-gatekeeper/abuse"
	"github.com/crazybass81/dot-gatekeeper/jwt"
	"github.com/crazybass81/dot-gatekeeper/ratelimit"
	"github.com/crazybass81/dot-gatekeeper/roles"
	"github.com/crazybass81/dot-gatekeeper/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Gate]. Configure it during initialization, call
// Build once, and treat the result as immutable.
type Builder struct {
	config Config
	redis  *redis.Client

	store     ratelimit.CounterStore
	validator TokenValidator
	jwtConfig *jwt.Config
	tracker   AttemptTracker
	roles     RoleValidator
	sessions  SessionChecker
	threats   ThreatDetector
	auditSink AuditSink

	built bool
}

// New creates a Builder over the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client used for the default counter store,
// attempt tracker, and session checker when no explicit implementations are
// given. Without it the gate runs fully in-process.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCounterStore overrides the rate-limit counter backend.
func (b *Builder) WithCounterStore(store ratelimit.CounterStore) *Builder {
	b.store = store
	return b
}

// WithTokenValidator supplies a custom token validation collaborator.
func (b *Builder) WithTokenValidator(v TokenValidator) *Builder {
	b.validator = v
	return b
}

// WithJWT configures the built-in JWT token validator. Ignored when
// [Builder.WithTokenValidator] is also called.
func (b *Builder) WithJWT(cfg jwt.Config) *Builder {
	b.jwtConfig = &cfg
	return b
}

// WithAttemptTracker overrides the failed-attempt tracker.
func (b *Builder) WithAttemptTracker(t AttemptTracker) *Builder {
	b.tracker = t
	return b
}

// WithRoleValidator overrides the role-hierarchy validator.
func (b *Builder) WithRoleValidator(v RoleValidator) *Builder {
	b.roles = v
	return b
}

// WithSessionChecker supplies the session validation collaborator. When nil
// and no Redis client is present, the session stage is skipped.
func (b *Builder) WithSessionChecker(s SessionChecker) *Builder {
	b.sessions = s
	return b
}

// WithThreatDetector supplies the threat-level collaborator. When nil the
// threat stage is skipped.
func (b *Builder) WithThreatDetector(t ThreatDetector) *Builder {
	b.threats = t
	return b
}

// WithAuditSink supplies the security-event sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires defaults for any collaborator
// not supplied, and returns the assembled gate.
func (b *Builder) Build() (*Gate, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	validator := b.validator
	if validator == nil {
		if b.jwtConfig == nil {
			return nil, errors.New("token validator required: call WithTokenValidator or WithJWT")
		}
		manager, err := jwt.NewManager(*b.jwtConfig)
		if err != nil {
			return nil, err
		}
		validator = jwtTokenValidator{manager: manager}
	}

	roleValidator := b.roles
	if roleValidator == nil {
		roleValidator = roles.Default()
	}
	if !roleValidator.IsValidRole(cfg.Routes.AdminRole) {
		return nil, errors.New("Routes.AdminRole does not exist in the role hierarchy")
	}
	if !roleValidator.IsValidRole(cfg.Routes.MasterAdminRole) {
		return nil, errors.New("Routes.MasterAdminRole does not exist in the role hierarchy")
	}

	g := &Gate{
		cfg:       cfg,
		validator: validator,
		roles:     roleValidator,
		sessions:  b.sessions,
		threats:   b.threats,
		metrics:   NewMetrics(cfg.Metrics),
		stages:    pipelineStages(),
	}

	g.store = b.store
	if g.store == nil {
		if b.redis != nil {
			g.store = ratelimit.NewRedisStore(b.redis, "grl")
		} else {
			mem := ratelimit.NewMemoryStore()
			g.store = mem
			g.stopJanitor = mem.StartJanitor(time.Minute)
		}
	}

	g.tracker = b.tracker
	if g.tracker == nil {
		if b.redis != nil {
			g.tracker = abuse.NewTracker(b.redis, abuse.Config{})
		} else {
			g.tracker = abuse.NewMemoryTracker(abuse.Config{})
		}
	}

	if g.sessions == nil && b.redis != nil {
		g.sessions = session.NewStore(b.redis, "gs", 30*time.Minute)
	}

	g.limiters = map[ratelimit.Preset]*ratelimit.Limiter{
		ratelimit.PresetAuth: ratelimit.New(g.store, ratelimit.Config{
			Budget:  cfg.Limits.Auth,
			Key:     ratelimit.ByIP,
			Message: "too many authentication attempts",
		}),
		ratelimit.PresetAPI: ratelimit.New(g.store, ratelimit.Config{
			Budget:  cfg.Limits.API,
			Key:     ratelimit.ByIP,
			Message: "too many requests",
		}),
		ratelimit.PresetRead: ratelimit.New(g.store, ratelimit.Config{
			Budget:  cfg.Limits.Read,
			Key:     ratelimit.ByIP,
			Message: "too many requests",
		}),
		ratelimit.PresetWrite: ratelimit.New(g.store, ratelimit.Config{
			Budget:  cfg.Limits.Write,
			Key:     ratelimit.ByIP,
			Message: "too many write requests",
		}),
		// Admin budgets are per (actor, route): one noisy admin screen
		// must not starve every other admin operation.
		ratelimit.PresetAdmin: ratelimit.New(g.store, ratelimit.Config{
			Budget:  cfg.Limits.Admin,
			Key:     ratelimit.ByEndpointComposite,
			Message: "too many administrative requests",
		}),
	}

	g.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return g, nil
}

// jwtTokenValidator adapts jwt.Manager to the [TokenValidator] contract,
// mapping the subpackage sentinels onto the root error taxonomy.
type jwtTokenValidator struct {
	manager *jwt.Manager
}

func (v jwtTokenValidator) Validate(ctx context.Context, token string) (TokenPayload, error) {
	claims, err := v.manager.Verify(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpired):
			return TokenPayload{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrRevoked):
			return TokenPayload{}, ErrTokenRevoked
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return TokenPayload{}, ErrValidatorUnavailable
		default:
			return TokenPayload{}, ErrTokenInvalid
		}
	}

	return TokenPayload{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Roles:         append([]string(nil), claims.Roles...),
		IsMasterAdmin: claims.IsMasterAdmin,
	}, nil
}
