// Package authcore wires the identity provider, the session store and the
// tenant resolver into one lifecycle: identity event → profile resolution →
// tenant scope → permission gate. It is the single entry point an embedding
// application needs.
package authcore

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/core/permission"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
	"github.com/UnisoftSistemas/implantei-core/internal/core/tenantscope"
)

// Core owns the session store and tenant resolver and keeps them consistent
// with the identity provider's event stream.
type Core struct {
	provider ports.IdentityProvider
	session  *session.Store
	resolver *tenantscope.Resolver
	log      zerolog.Logger

	unsubProvider func()
	unsubSession  func()
}

// New builds a Core. Call Start to begin observing identity events.
func New(
	provider ports.IdentityProvider,
	profiles session.ProfileService,
	tenants ports.TenantService,
	cache ports.TenantCache,
	log zerolog.Logger,
) *Core {
	return &Core{
		provider: provider,
		session:  session.NewStore(profiles, log),
		resolver: tenantscope.NewResolver(tenants, cache, log),
		log:      log.With().Str("component", "authcore").Logger(),
	}
}

// Start subscribes to the identity provider and to session transitions.
// Identity events are applied in the order the provider emits them; tenant
// resolution re-runs at every settled session transition, so a user change
// always rebuilds the scope and a sign-out always clears it.
func (c *Core) Start(ctx context.Context) {
	c.unsubProvider = c.provider.Subscribe(func(id *ports.Identity) {
		c.session.ObserveIdentity(ctx, id)
	})
	c.unsubSession = c.session.Subscribe(func(snap session.Snapshot) {
		if !snap.Ready() {
			return
		}
		c.resolver.Resolve(ctx, snap.User)
	})
}

// Stop detaches from the provider and session streams.
func (c *Core) Stop() {
	if c.unsubProvider != nil {
		c.unsubProvider()
	}
	if c.unsubSession != nil {
		c.unsubSession()
	}
}

// SignIn authenticates with credentials. On failure the session keeps its
// prior state; on success the provider emits the new identity and the
// session/profile/scope pipeline runs from there.
func (c *Core) SignIn(ctx context.Context, email, password string) error {
	if _, err := c.provider.SignIn(ctx, email, password); err != nil {
		return err
	}
	return nil
}

// SignOut clears local state synchronously and then tells the provider.
// A provider failure is logged and otherwise ignored: a user must always be
// able to leave an authenticated view.
func (c *Core) SignOut(ctx context.Context) {
	c.session.SignOut()
	c.resolver.Clear()
	if err := c.provider.SignOut(ctx); err != nil {
		c.log.Warn().Err(err).Msg("provider sign-out failed; local session cleared anyway")
	}
}

// Session returns the current session snapshot.
func (c *Core) Session() session.Snapshot {
	return c.session.Snapshot()
}

// Scope returns the current tenant scope snapshot.
func (c *Core) Scope() tenantscope.Scope {
	return c.resolver.Snapshot()
}

// Gate derives a fresh permission gate from the current snapshots. Derive at
// every decision point; a Gate held across transitions goes stale.
func (c *Core) Gate() permission.Gate {
	return permission.NewGate(c.session.Snapshot(), c.resolver.Snapshot())
}

// SetActiveTenant switches the tenant a global operator is viewing as.
func (c *Core) SetActiveTenant(id string) error {
	return c.resolver.SetActiveTenant(id)
}

// InvalidateTenants drops cached tenant data and re-fetches the list for the
// current scope. Call after any tenant mutation.
func (c *Core) InvalidateTenants(ctx context.Context) {
	c.resolver.Refresh(ctx)
}
