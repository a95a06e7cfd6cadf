package gatekeeper

import (
	"net/http"
	"path"
	"strings"

	"github.com/crazybass81/dot-gatekeeper/ratelimit"
)

// staticExtensions are file suffixes served without pipeline involvement.
var staticExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {}, ".png": {}, ".jpg": {}, ".jpeg": {},
	".gif": {}, ".svg": {}, ".ico": {}, ".webp": {}, ".woff": {}, ".woff2": {},
	".ttf": {}, ".eot": {}, ".txt": {},
}

// isBypass reports whether the path is a static asset or framework-internal
// route that skips every pipeline stage.
func (c RoutesConfig) isBypass(p string) bool {
	for _, prefix := range c.BypassPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	if ext := path.Ext(p); ext != "" {
		if _, ok := staticExtensions[strings.ToLower(ext)]; ok {
			return true
		}
	}
	return false
}

// classify resolves the route class by longest-prefix match across the four
// tables. Paths matching nothing are treated as authenticated routes: an
// unlisted endpoint must never fall open.
func (c RoutesConfig) classify(p string) RouteClass {
	class := RouteAuthRequired
	best := -1

	match := func(table []string, cls RouteClass) {
		for _, prefix := range table {
			if !matchesPrefix(p, prefix) {
				continue
			}
			if len(prefix) > best {
				best = len(prefix)
				class = cls
			}
		}
	}

	match(c.Public, RoutePublic)
	match(c.AuthRequired, RouteAuthRequired)
	match(c.AdminOnly, RouteAdminOnly)
	match(c.MasterAdminOnly, RouteMasterAdminOnly)

	return class
}

// matchesPrefix treats "/" and prefixes ending in "/" as subtree matches,
// and everything else as exact-or-subpath matches, so "/admin" covers
// "/admin" and "/admin/users" but not "/administrate".
func matchesPrefix(p, prefix string) bool {
	if prefix == "/" {
		return p == "/"
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(prefix, "/")
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// presetFor selects the limiter preset: auth and admin namespaces get their
// strict budgets, everything else splits read/write by method, with the
// general API budget as the fallback for unusual methods.
func (c RoutesConfig) presetFor(p, method string) ratelimit.Preset {
	if strings.HasPrefix(p, c.AuthPrefix) {
		return ratelimit.PresetAuth
	}
	if strings.HasPrefix(p, c.AdminPrefix) {
		return ratelimit.PresetAdmin
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ratelimit.PresetRead
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return ratelimit.PresetWrite
	default:
		return ratelimit.PresetAPI
	}
}
