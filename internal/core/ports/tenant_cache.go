package ports

import (
	"context"
	"errors"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
)

// ErrCacheMiss is returned by cache reads when no fresh entry exists.
var ErrCacheMiss = errors.New("cache miss")

// TenantCache is a read-through cache for tenant data with explicit
// invalidation. Staleness is a responsiveness choice, not a correctness one:
// mutations must invalidate rather than splice entries in place.
type TenantCache interface {
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)
	SetTenant(ctx context.Context, t *domain.Tenant) error
	InvalidateTenant(ctx context.Context, id string) error

	GetTenantList(ctx context.Context) ([]domain.Tenant, error)
	SetTenantList(ctx context.Context, tenants []domain.Tenant) error
	InvalidateTenantList(ctx context.Context) error
}
