package permission

import (
	"net/url"

	"github.com/UnisoftSistemas/implantei-core/internal/core/tenantscope"
)

// Route paths the guard redirects to. These are the SPA's literal paths.
const (
	PathLogin           = "/login"
	PathTenantDashboard = "/dashboard"
	PathGlobalDashboard = "/super-admin/dashboard"
)

// Requirement describes what a guarded route demands of the session.
// The zero value only requires authentication.
type Requirement struct {
	// Capability, when set, must be granted by the gate.
	Capability Capability
	// TenantID, when set, must be accessible to the session.
	TenantID string
	// GlobalScope requires a global operator.
	GlobalScope bool
	// TenantScope requires a non-global session: tenant-only UI is never
	// rendered for a global operator.
	TenantScope bool
}

// Decision is the guard verdict for one navigation.
type Decision struct {
	// Allow means render the route.
	Allow bool
	// Pending means session or tenant resolution has not settled; render a
	// loading state and decide again on the next transition.
	Pending bool
	// RedirectTo is set when the route must not render.
	RedirectTo string
}

// Decide evaluates a guarded navigation. It must be called on every
// navigation: scope can change between requests and a cached verdict would
// go stale.
func (g Gate) Decide(req Requirement, requestedPath string) Decision {
	// Both stores must settle before anything renders.
	if !g.sess.Ready() {
		return Decision{Pending: true}
	}
	if !g.sess.Authenticated() {
		return Decision{RedirectTo: loginRedirect(requestedPath)}
	}
	if g.scope.State != tenantscope.StateResolved {
		return Decision{Pending: true}
	}

	if req.GlobalScope && !g.IsGlobalOperator() {
		return Decision{RedirectTo: PathTenantDashboard}
	}
	if req.TenantScope && g.IsGlobalOperator() {
		return Decision{RedirectTo: PathGlobalDashboard}
	}
	if req.TenantID != "" && !g.CanAccessTenant(req.TenantID) {
		return Decision{RedirectTo: PathTenantDashboard}
	}
	if req.Capability != "" && !g.Can(req.Capability) {
		return Decision{RedirectTo: PathTenantDashboard}
	}
	return Decision{Allow: true}
}

// DefaultRoute is the smart default used at the application root and
// wildcard paths. Re-derived on every call, never cached.
func (g Gate) DefaultRoute() string {
	if !g.sess.Authenticated() {
		return PathLogin
	}
	if g.IsGlobalOperator() {
		return PathGlobalDashboard
	}
	return PathTenantDashboard
}

// loginRedirect preserves the originally requested location for post-login
// return.
func loginRedirect(requestedPath string) string {
	if requestedPath == "" || requestedPath == PathLogin {
		return PathLogin
	}
	return PathLogin + "?next=" + url.QueryEscape(requestedPath)
}
