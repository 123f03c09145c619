package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

type stubVerifier struct {
	identity *ports.Identity
	err      error
}

func (s stubVerifier) VerifyIDToken(_ context.Context, token string) (*ports.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type stubProfiles struct {
	user *domain.User
	err  error
}

func (s stubProfiles) Profile(context.Context, ports.Identity) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	verifier := stubVerifier{identity: &ports.Identity{UID: "uid-1", Email: "ana@acme.com"}}
	profiles := stubProfiles{user: &domain.User{ID: "u1", Role: domain.RoleManager, TenantCompanyID: "t1"}}

	called := false
	mw := Auth(verifier, profiles)
	handler := mw(func(c echo.Context) error {
		called = true
		identity, _ := c.Get(CtxIdentity).(*ports.Identity)
		if identity == nil || identity.UID != "uid-1" {
			t.Fatalf("identity not set")
		}
		user, _ := c.Get(CtxUser).(*domain.User)
		if user == nil || user.ID != "u1" {
			t.Fatalf("user not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

type multiVerifier struct {
	identities map[string]*ports.Identity
}

func (m multiVerifier) VerifyIDToken(_ context.Context, token string) (*ports.Identity, error) {
	id, ok := m.identities[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return id, nil
}

// tokenBoundProfiles resolves against the bearer token the backend actually
// receives, the way /auth/me does.
type tokenBoundProfiles struct {
	byToken map[string]*domain.User
}

func (p tokenBoundProfiles) Profile(ctx context.Context, _ ports.Identity) (*domain.User, error) {
	user, ok := p.byToken[ports.CallerToken(ctx)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func TestAuthMiddleware_ProfileBoundToRequestToken(t *testing.T) {
	verifier := multiVerifier{identities: map[string]*ports.Identity{
		"alice-token": {UID: "uid-alice", Email: "alice@acme.com"},
		"bob-token":   {UID: "uid-bob", Email: "bob@acme.com"},
	}}
	profiles := tokenBoundProfiles{byToken: map[string]*domain.User{
		"alice-token": {ID: "u-alice", Role: domain.RoleManager, TenantCompanyID: "t1"},
		"bob-token":   {ID: "u-bob", Role: domain.RoleTechnician, TenantCompanyID: "t2"},
	}}

	// Two users hold valid tokens at once. Each request must resolve the
	// profile of its own bearer, never the one who authenticated last.
	e := echo.New()
	mw := Auth(verifier, profiles)
	for token, wantID := range map[string]string{"bob-token": "u-bob", "alice-token": "u-alice"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := mw(func(c echo.Context) error {
			user, _ := c.Get(CtxUser).(*domain.User)
			if user == nil || user.ID != wantID {
				t.Fatalf("token %s resolved user %+v, want %s", token, user, wantID)
			}
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(stubVerifier{}, stubProfiles{})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(stubVerifier{}, stubProfiles{})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Auth(stubVerifier{err: domain.ErrUnauthenticated}, stubProfiles{})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ProfileFailureIsUnauthorized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Verified identity without an application profile: not authenticated.
	verifier := stubVerifier{identity: &ports.Identity{UID: "uid-1"}}
	mw := Auth(verifier, stubProfiles{err: errors.New("backend down")})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
