package handler

import (
	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/permission"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
	"github.com/UnisoftSistemas/implantei-core/internal/core/tenantscope"
)

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse describes the caller to the client: who they are, what the
// gate grants them and where the UI should land them.
type sessionResponse struct {
	Token        string                         `json:"token,omitempty"`
	User         *domain.User                   `json:"user"`
	Capabilities map[permission.Capability]bool `json:"capabilities"`
	DefaultRoute string                         `json:"default_route"`
}

func newSessionResponse(identity *ports.Identity, user *domain.User) sessionResponse {
	snap := session.Snapshot{Identity: identity, User: user, Phase: session.PhaseReady}

	scope := tenantscope.Scope{State: tenantscope.StateResolved}
	if user != nil {
		scope.IsGlobalOperator = user.IsGlobalOperator()
		if !scope.IsGlobalOperator && user.TenantCompanyID != "" {
			scope.ActiveTenant = &domain.Tenant{ID: user.TenantCompanyID}
		}
	}

	gate := permission.NewGate(snap, scope)
	return sessionResponse{
		User:         user,
		Capabilities: gate.Capabilities(),
		DefaultRoute: gate.DefaultRoute(),
	}
}
