package ports

import (
	"context"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
)

// TenantInput carries the mutable tenant attributes for create and update
// operations. Pointer fields distinguish "leave unchanged" from "set empty"
// on partial updates.
type TenantInput struct {
	Name          string  `json:"name"`
	CNPJ          string  `json:"cnpj"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Segment       *string `json:"segment,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
}

// TenantService is the backend contract the tenant-resolution layer and the
// administrative operations consume.
type TenantService interface {
	// Tenant fetches a single tenant by id.
	Tenant(ctx context.Context, id string) (*domain.Tenant, error)

	// Tenants lists every tenant visible to a global operator, active and
	// inactive, in backend order.
	Tenants(ctx context.Context) ([]domain.Tenant, error)

	// Administrative mutations, global operators only. The backend enforces
	// this too; the gate merely avoids doomed calls.
	CreateTenant(ctx context.Context, in TenantInput) (*domain.Tenant, error)
	UpdateTenant(ctx context.Context, id string, in TenantInput) (*domain.Tenant, error)
	SetTenantActive(ctx context.Context, id string, active bool) (*domain.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
}
