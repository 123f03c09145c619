package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/UnisoftSistemas/implantei-core/internal/api/metrics"
	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/permission"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
	"github.com/UnisoftSistemas/implantei-core/internal/core/tenantscope"
)

// TenantHeader lets a global operator address a specific tenant on a request.
// Scoped users never select a tenant this way; their membership decides.
const TenantHeader = "X-Tenant-ID"

// GateFrom derives a permission gate for the authenticated request. The gate
// is per-request state assembled from the Auth middleware's context values;
// an unauthenticated context yields a gate that denies everything.
func GateFrom(c echo.Context) permission.Gate {
	identity, _ := c.Get(CtxIdentity).(*ports.Identity)
	user, _ := c.Get(CtxUser).(*domain.User)

	snap := session.Snapshot{Identity: identity, User: user, Phase: session.PhaseReady}

	scope := tenantscope.Scope{State: tenantscope.StateResolved}
	if user != nil {
		scope.IsGlobalOperator = user.IsGlobalOperator()
		switch {
		case scope.IsGlobalOperator:
			if id := c.Request().Header.Get(TenantHeader); id != "" {
				scope.ActiveTenant = &domain.Tenant{ID: id}
			}
		case user.TenantCompanyID != "":
			scope.ActiveTenant = &domain.Tenant{ID: user.TenantCompanyID}
		}
	}

	return permission.NewGate(snap, scope)
}

// RequireCapability rejects requests whose gate does not grant the
// capability. Run after Auth.
func RequireCapability(capability permission.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !GateFrom(c).Can(capability) {
				metrics.PermissionDenialsTotal.WithLabelValues(string(capability)).Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
