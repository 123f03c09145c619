// Package tenantscope translates an application user into an operating
// scope: global operators see the whole tenant list and may switch between
// tenants, everyone else is pinned to their own membership tenant.
package tenantscope

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

// State is the resolution state machine: Unresolved → Resolving → Resolved.
type State int

const (
	StateUnresolved State = iota
	StateResolving
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// Scope is an immutable view of the resolved operating scope.
type Scope struct {
	State            State
	IsGlobalOperator bool
	// ActiveTenant is the tenant currently being viewed. For a global
	// operator nil means the global/all-tenants view; for everyone else it
	// is their own membership tenant, or nil when it could not be resolved.
	ActiveTenant *domain.Tenant
	// AvailableTenants is populated for global operators only.
	AvailableTenants []domain.Tenant
}

// Resolver derives and holds the tenant scope for the current user. It is
// written only by its own operations and read by everyone else through
// Snapshot.
type Resolver struct {
	mu        sync.Mutex
	state     State
	userID    string
	isGlobal  bool
	active    *domain.Tenant
	available []domain.Tenant

	tenants ports.TenantService
	cache   ports.TenantCache
	log     zerolog.Logger
}

func NewResolver(tenants ports.TenantService, cache ports.TenantCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		tenants: tenants,
		cache:   cache,
		log:     log.With().Str("component", "tenantscope").Logger(),
	}
}

// Snapshot returns the current scope view. The slice is shared read-only.
func (r *Resolver) Snapshot() Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Scope{
		State:            r.state,
		IsGlobalOperator: r.isGlobal,
		ActiveTenant:     r.active,
		AvailableTenants: r.available,
	}
}

// Resolve recomputes the scope for user. A nil user (signed out) forces the
// machine back to Unresolved. When the user identifier changes, previous
// tenant data is dropped before anything else happens so it can never leak
// into the new session, and any fetch still in flight for the old user is
// discarded on completion.
func (r *Resolver) Resolve(ctx context.Context, user *domain.User) {
	r.mu.Lock()
	if user == nil {
		r.clearLocked()
		r.mu.Unlock()
		return
	}

	if r.userID != user.ID {
		r.clearLocked()
	}
	r.userID = user.ID
	r.isGlobal = user.IsGlobalOperator()
	r.state = StateResolving
	r.mu.Unlock()

	if user.IsGlobalOperator() {
		r.loadAvailableTenants(ctx, user.ID)
	} else {
		r.loadOwnTenant(ctx, user)
	}
}

// loadAvailableTenants populates the selectable tenant list for a global
// operator, reading through the cache.
func (r *Resolver) loadAvailableTenants(ctx context.Context, userID string) {
	tenants, err := r.cache.GetTenantList(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			r.log.Warn().Err(err).Msg("tenant list cache read failed")
		}
		tenants, err = r.tenants.Tenants(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("tenant list fetch failed")
			r.applyList(userID, nil)
			return
		}
		if cacheErr := r.cache.SetTenantList(ctx, tenants); cacheErr != nil {
			r.log.Warn().Err(cacheErr).Msg("tenant list cache write failed")
		}
	}
	r.applyList(userID, tenants)
}

// loadOwnTenant resolves the single tenant a scoped user belongs to. A
// membership that no longer resolves leaves the active tenant empty and the
// permission gate denies tenant-scoped actions.
func (r *Resolver) loadOwnTenant(ctx context.Context, user *domain.User) {
	tenant, err := r.cache.GetTenant(ctx, user.TenantCompanyID)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			r.log.Warn().Err(err).Msg("tenant cache read failed")
		}
		tenant, err = r.tenants.Tenant(ctx, user.TenantCompanyID)
		if err != nil {
			r.log.Error().Err(err).
				Str("tenant_id", user.TenantCompanyID).
				Msg("own tenant fetch failed; denying tenant scope")
			r.apply(user.ID, nil, nil)
			return
		}
		if cacheErr := r.cache.SetTenant(ctx, tenant); cacheErr != nil {
			r.log.Warn().Err(cacheErr).Msg("tenant cache write failed")
		}
	}
	r.apply(user.ID, tenant, nil)
}

// apply commits a resolution result unless the user changed while the fetch
// was in flight.
func (r *Resolver) apply(userID string, active *domain.Tenant, available []domain.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != userID {
		r.log.Debug().Str("user_id", userID).Msg("discarding stale tenant resolution")
		return
	}
	r.active = active
	r.available = available
	r.state = StateResolved
}

// applyList commits a tenant list for a global operator. The active tenant
// selection survives a refresh as long as it is still in the list; operators
// with no selection stay in the global view.
func (r *Resolver) applyList(userID string, available []domain.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != userID {
		r.log.Debug().Str("user_id", userID).Msg("discarding stale tenant resolution")
		return
	}
	if r.active != nil {
		kept := false
		for i := range available {
			if available[i].ID == r.active.ID {
				t := available[i]
				r.active = &t
				kept = true
				break
			}
		}
		if !kept {
			r.active = nil
		}
	}
	r.available = available
	r.state = StateResolved
}

// SetActiveTenant switches the tenant a global operator is viewing as. An
// empty id selects the global/all-tenants view. An id not present in the
// available list is a no-op, defending against stale UI state. Non-global
// users cannot switch.
func (r *Resolver) SetActiveTenant(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isGlobal {
		return domain.ErrNotGlobalOperator
	}
	if id == "" {
		r.active = nil
		return nil
	}
	for i := range r.available {
		if r.available[i].ID == id {
			t := r.available[i]
			r.active = &t
			return nil
		}
	}
	return nil
}

// Refresh re-fetches tenant data for the current user, bypassing the cache.
// Call it after any mutation that may have changed the tenant set.
func (r *Resolver) Refresh(ctx context.Context) {
	r.mu.Lock()
	userID := r.userID
	isGlobal := r.isGlobal
	state := r.state
	r.mu.Unlock()

	if state == StateUnresolved || userID == "" {
		return
	}
	if isGlobal {
		if err := r.cache.InvalidateTenantList(ctx); err != nil {
			r.log.Warn().Err(err).Msg("tenant list invalidation failed")
		}
		r.loadAvailableTenants(ctx, userID)
	}
}

// Clear resets all tenant-derived state. Called on sign-out.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.clearLocked()
	r.mu.Unlock()
}

func (r *Resolver) clearLocked() {
	r.state = StateUnresolved
	r.userID = ""
	r.isGlobal = false
	r.active = nil
	r.available = nil
}
