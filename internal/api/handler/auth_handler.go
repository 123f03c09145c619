package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/api/metrics"
	"github.com/UnisoftSistemas/implantei-core/internal/api/middleware"
	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
)

// IdentityService is the slice of the identity provider the auth endpoints
// need.
type IdentityService interface {
	Register(ctx context.Context, email, password string) (*domain.Credential, error)
	SignIn(ctx context.Context, email, password string) (*ports.Identity, error)
	SignOut(ctx context.Context) error
	IDToken(ctx context.Context) (string, error)
}

type AuthHandler struct {
	identities IdentityService
	profiles   session.ProfileService
	log        zerolog.Logger
}

func NewAuthHandler(identities IdentityService, profiles session.ProfileService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		profiles:   profiles,
		log:        log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register creates a new local identity.
//
// @Summary      Register a new identity
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Credentials to register"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cred, err := h.identities.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{UID: cred.UID, Email: cred.Email})
}

// Login authenticates credentials and returns a bearer token together with
// the resolved profile and its capability map.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	identity, err := h.identities.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.SignInsTotal.WithLabelValues("success").Inc()

	token, err := h.identities.IDToken(ctx)
	if err != nil {
		return err
	}

	// A missing profile does not fail the login; the response simply carries
	// no user and an empty capability set, and the client lands on /login.
	// The profile call is bound to the token we hand back, so the response
	// user always matches the response token.
	user, err := h.profiles.Profile(ports.WithCallerToken(ctx, token), *identity)
	if err != nil {
		metrics.ProfileResolutionsTotal.WithLabelValues("failure").Inc()
		h.log.Warn().Err(err).Str("uid", identity.UID).Msg("profile resolution failed on login")
		user = nil
	} else {
		metrics.ProfileResolutionsTotal.WithLabelValues("success").Inc()
	}

	resp := newSessionResponse(identity, user)
	resp.Token = token
	return c.JSON(http.StatusOK, resp)
}

// Logout clears the provider session. Always succeeds from the client's
// point of view.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.identities.SignOut(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Msg("provider sign-out failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the authenticated caller's profile, capabilities and
// default route. Runs behind the Auth middleware.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	identity, _ := c.Get(middleware.CtxIdentity).(*ports.Identity)
	user, _ := c.Get(middleware.CtxUser).(*domain.User)
	return c.JSON(http.StatusOK, newSessionResponse(identity, user))
}
