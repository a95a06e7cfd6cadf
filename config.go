package gatekeeper

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crazybass81/dot-gatekeeper/ratelimit"
)

// Config defines the immutable configuration of a [Gate]. It is assembled
// once through the [Builder] and never mutated after Build; hot-path code
// reads it by reference and performs no ambient environment lookups.
type Config struct {
	CORS    CORSConfig
	Routes  RoutesConfig
	Limits  LimitsConfig
	Audit   AuditConfig
	Metrics MetricsConfig

	// Production enables origin allow-list enforcement. When false (the
	// development default) CORS violations are logged but not denied.
	Production bool

	// SecurityHeaders enables the hardened response header set on every
	// response written by the middleware.
	SecurityHeaders bool

	// MaxRequestSize is the largest accepted declared content length in
	// bytes. Zero means the 1 MiB default.
	MaxRequestSize int64

	// CollaboratorTimeout bounds each external validator call (token,
	// session, threat). A timeout is a validation failure, never an allow.
	CollaboratorTimeout time.Duration

	// BlockRetryAfter is the Retry-After advertised when the attempt
	// tracker blocks a client.
	BlockRetryAfter time.Duration
}

// CORSConfig controls origin validation and pre-flight responses for
// API-namespaced routes.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// RoutesConfig holds the classification tables. Classification is by
// longest-prefix match; unmatched paths are treated as authenticated routes
// so that an unlisted endpoint can never fall open.
type RoutesConfig struct {
	// APIPrefix marks routes that receive JSON denials and CORS handling.
	// Paths outside it are page routes and receive login redirects instead.
	APIPrefix string

	// AuthPrefix and AdminPrefix select the auth and admin limiter presets.
	AuthPrefix  string
	AdminPrefix string

	// LoginPath is the redirect target for unauthenticated page requests.
	LoginPath string

	// BypassPrefixes skip the pipeline entirely (framework internals).
	BypassPrefixes []string

	Public          []string
	AuthRequired    []string
	AdminOnly       []string
	MasterAdminOnly []string

	// Minimum roles for the two admin tiers.
	AdminRole       string
	MasterAdminRole string
}

// LimitsConfig carries the per-preset fixed-window budgets.
type LimitsConfig struct {
	Auth  ratelimit.Budget
	API   ratelimit.Budget
	Read  ratelimit.Budget
	Write ratelimit.Budget
	Admin ratelimit.Budget
}

// AuditConfig controls the asynchronous security-event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// emitter. The drop count is observable via [Gate.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process metric counters.
type MetricsConfig struct {
	Enabled                bool
	EnableLatencyHistogram bool
}

const defaultMaxRequestSize = 1 << 20 // 1 MiB

// DefaultConfig returns the configuration the gate starts from. Callers may
// adjust the copy and pass it to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		CORS: CORSConfig{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Session-Id"},
			MaxAge:         10 * time.Minute,
		},
		Routes: RoutesConfig{
			APIPrefix:   "/api/",
			AuthPrefix:  "/api/auth/",
			AdminPrefix: "/api/admin/",
			LoginPath:   "/login",
			BypassPrefixes: []string{
				"/_next/", "/static/", "/assets/", "/favicon.ico",
			},
			Public: []string{
				"/api/auth/login", "/api/auth/register", "/api/health", "/login", "/",
			},
			AuthRequired:    []string{"/api/", "/dashboard"},
			AdminOnly:       []string{"/api/admin/", "/admin"},
			MasterAdminOnly: []string{"/api/admin/system", "/api/master/"},
			AdminRole:       "ADMIN",
			MasterAdminRole: "MASTER_ADMIN",
		},
		Limits: LimitsConfig{
			Auth:  ratelimit.Budget{Window: 15 * time.Minute, Max: 5},
			API:   ratelimit.Budget{Window: time.Minute, Max: 100},
			Read:  ratelimit.Budget{Window: time.Minute, Max: 200},
			Write: ratelimit.Budget{Window: time.Minute, Max: 30},
			Admin: ratelimit.Budget{Window: time.Minute, Max: 10},
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		SecurityHeaders:     true,
		MaxRequestSize:      defaultMaxRequestSize,
		CollaboratorTimeout: 3 * time.Second,
		BlockRetryAfter:     15 * time.Minute,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.CORS.AllowedOrigins = append([]string(nil), cfg.CORS.AllowedOrigins...)
	out.CORS.AllowedMethods = append([]string(nil), cfg.CORS.AllowedMethods...)
	out.CORS.AllowedHeaders = append([]string(nil), cfg.CORS.AllowedHeaders...)
	out.Routes.BypassPrefixes = append([]string(nil), cfg.Routes.BypassPrefixes...)
	out.Routes.Public = append([]string(nil), cfg.Routes.Public...)
	out.Routes.AuthRequired = append([]string(nil), cfg.Routes.AuthRequired...)
	out.Routes.AdminOnly = append([]string(nil), cfg.Routes.AdminOnly...)
	out.Routes.MasterAdminOnly = append([]string(nil), cfg.Routes.MasterAdminOnly...)
	return out
}

// Validate checks internal consistency. It is called by [Builder.Build].
func (c Config) Validate() error {
	if c.MaxRequestSize < 0 {
		return errors.New("MaxRequestSize must not be negative")
	}
	if c.CollaboratorTimeout <= 0 {
		return errors.New("CollaboratorTimeout must be positive")
	}
	if c.BlockRetryAfter <= 0 {
		return errors.New("BlockRetryAfter must be positive")
	}
	if c.Routes.APIPrefix == "" || !strings.HasPrefix(c.Routes.APIPrefix, "/") {
		return errors.New("Routes.APIPrefix must be an absolute path prefix")
	}
	if c.Routes.LoginPath == "" {
		return errors.New("Routes.LoginPath required")
	}
	if c.Routes.AdminRole == "" || c.Routes.MasterAdminRole == "" {
		return errors.New("Routes admin role names required")
	}
	for _, b := range []ratelimit.Budget{c.Limits.Auth, c.Limits.API, c.Limits.Read, c.Limits.Write, c.Limits.Admin} {
		if b.Window <= 0 || b.Max < 1 {
			return errors.New("limiter budgets require a positive window and max >= 1")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}
	return nil
}

// FromEnv overlays the enumerated environment surface onto the defaults.
// It is the only place the package reads the environment; the result is a
// plain Config value handed to the Builder at startup.
func FromEnv() Config {
	cfg := defaultConfig()

	if v := os.Getenv("GATEKEEPER_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
	if v := os.Getenv("GATEKEEPER_PRODUCTION"); v != "" {
		cfg.Production = parseBool(v)
	}
	if v := os.Getenv("GATEKEEPER_SECURITY_HEADERS"); v != "" {
		cfg.SecurityHeaders = parseBool(v)
	}
	if v := os.Getenv("GATEKEEPER_MAX_REQUEST_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxRequestSize = n
		}
	}

	overlayBudget("GATEKEEPER_LIMIT_AUTH", &cfg.Limits.Auth)
	overlayBudget("GATEKEEPER_LIMIT_API", &cfg.Limits.API)
	overlayBudget("GATEKEEPER_LIMIT_READ", &cfg.Limits.Read)
	overlayBudget("GATEKEEPER_LIMIT_WRITE", &cfg.Limits.Write)
	overlayBudget("GATEKEEPER_LIMIT_ADMIN", &cfg.Limits.Admin)

	return cfg
}

// overlayBudget reads "<prefix>_WINDOW_MS" and "<prefix>_MAX" overrides.
func overlayBudget(prefix string, b *ratelimit.Budget) {
	if v := os.Getenv(prefix + "_WINDOW_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			b.Window = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv(prefix + "_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			b.Max = n
		}
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
