package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/UnisoftSistemas/implantei-core/internal/api/metrics"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxIdentity = "identity"
	CtxUser     = "user"
)

// Auth validates the bearer token, resolves the application profile and
// injects both into the request context. A valid token without a resolvable
// profile is still unauthorized: identity alone never authenticates.
func Auth(verifier ports.TokenVerifier, profiles session.ProfileService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			ctx := c.Request().Context()
			identity, err := verifier.VerifyIDToken(ctx, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			// Downstream backend calls must act as this caller, not as whoever
			// signed in last on the shared provider.
			ctx = ports.WithCallerToken(ctx, parts[1])
			c.SetRequest(c.Request().WithContext(ctx))

			user, err := profiles.Profile(ctx, *identity)
			if err != nil {
				metrics.ProfileResolutionsTotal.WithLabelValues("failure").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "no application profile for identity")
			}
			metrics.ProfileResolutionsTotal.WithLabelValues("success").Inc()

			c.Set(CtxIdentity, identity)
			c.Set(CtxUser, user)

			return next(c)
		}
	}
}
