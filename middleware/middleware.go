package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gatekeeper "github.com/crazybass81/dot-gatekeeper"
	"github.com/crazybass81/dot-gatekeeper/ratelimit"
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated identity injected by
// [Handler] on allowed requests.
func IdentityFromContext(ctx context.Context) (*gatekeeper.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*gatekeeper.Identity)
	return id, ok
}

// Identity headers forwarded to business-logic handlers on allow. Inbound
// copies are stripped first so clients can never forge them.
const (
	HeaderUserID      = "X-Auth-User-Id"
	HeaderEmail       = "X-Auth-Email"
	HeaderRoles       = "X-Auth-Roles"
	HeaderMasterAdmin = "X-Auth-Master-Admin"
	HeaderRequestID   = "X-Request-Id"
)

// Handler wraps next with the full gatekeeper pipeline.
func Handler(gate *gatekeeper.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate == nil {
				writeError(w, http.StatusInternalServerError, gatekeeper.CodeInternalError, "gateway unavailable")
				return
			}

			cfg := gate.Config()
			stripIdentityHeaders(r)

			decision := gate.Evaluate(r)

			if cfg.SecurityHeaders && !decision.Bypass {
				writeSecurityHeaders(w.Header(), cfg.Production)
			}
			writeCORSHeaders(w.Header(), r, cfg)
			if decision.RateLimit != nil {
				ratelimit.WriteHeaders(w.Header(), *decision.RateLimit)
			}

			switch decision.Kind {
			case gatekeeper.DecisionAllow:
				if decision.Preflight {
					writePreflightHeaders(w.Header(), cfg.CORS)
					w.WriteHeader(http.StatusNoContent)
					return
				}
				if decision.Identity != nil {
					injectIdentity(r, decision.Identity)
					r = r.WithContext(context.WithValue(r.Context(), identityContextKey{}, decision.Identity))
				}
				next.ServeHTTP(w, r)

			case gatekeeper.DecisionRedirect:
				if decision.ClearSession {
					clearAuthCookies(w)
				}
				target := decision.Location
				if r.URL.Path != "" && r.URL.Path != target {
					target += "?redirect=" + url.QueryEscape(r.URL.Path)
				}
				http.Redirect(w, r, target, decision.Status)

			default:
				if decision.ClearSession {
					clearAuthCookies(w)
				}
				if decision.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.FormatInt(int64(decision.RetryAfter/time.Second), 10))
				}
				writeError(w, decision.Status, decision.Code, decision.Message)
			}
		})
	}
}

func stripIdentityHeaders(r *http.Request) {
	for name := range r.Header {
		if strings.HasPrefix(name, "X-Auth-") {
			r.Header.Del(name)
		}
	}
	r.Header.Del(HeaderRequestID)
}

func injectIdentity(r *http.Request, id *gatekeeper.Identity) {
	r.Header.Set(HeaderUserID, id.UserID)
	r.Header.Set(HeaderEmail, id.Email)
	r.Header.Set(HeaderRoles, strings.Join(id.Roles, ","))
	r.Header.Set(HeaderMasterAdmin, strconv.FormatBool(id.IsMasterAdmin))
	r.Header.Set(HeaderRequestID, id.Fingerprint)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}

func writeSecurityHeaders(h http.Header, production bool) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	if production {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

func writeCORSHeaders(h http.Header, r *http.Request, cfg gatekeeper.Config) {
	origin := r.Header.Get("Origin")
	if origin == "" || !strings.HasPrefix(r.URL.Path, cfg.Routes.APIPrefix) {
		return
	}
	for _, allowed := range cfg.CORS.AllowedOrigins {
		if origin == allowed {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			return
		}
	}
	if !cfg.Production {
		// Development keeps browsers working against unlisted origins.
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
}

func writePreflightHeaders(h http.Header, cors gatekeeper.CORSConfig) {
	h.Set("Access-Control-Allow-Methods", strings.Join(cors.AllowedMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(cors.AllowedHeaders, ", "))
	if cors.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.FormatInt(int64(cors.MaxAge/time.Second), 10))
	}
}

func clearAuthCookies(w http.ResponseWriter) {
	expire := func(name string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	expire(gatekeeper.AuthCookieName)
	expire(gatekeeper.SessionCookieName)
}
