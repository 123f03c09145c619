package tenantscope

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubTenantService struct {
	mu        sync.Mutex
	byID      map[string]*domain.Tenant
	list      []domain.Tenant
	listCalls int
	tenantErr error
	listErr   error
}

func newStubTenantService(tenants ...domain.Tenant) *stubTenantService {
	s := &stubTenantService{byID: make(map[string]*domain.Tenant)}
	for i := range tenants {
		t := tenants[i]
		s.byID[t.ID] = &t
		s.list = append(s.list, t)
	}
	return s
}

func (s *stubTenantService) Tenant(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenantErr != nil {
		return nil, s.tenantErr
	}
	t, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *stubTenantService) Tenants(_ context.Context) ([]domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.Tenant(nil), s.list...), nil
}

func (s *stubTenantService) CreateTenant(_ context.Context, in ports.TenantInput) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.Tenant{ID: "tenant-" + in.Name, Name: in.Name, CNPJ: in.CNPJ, Active: true}
	s.byID[t.ID] = &t
	s.list = append(s.list, t)
	return &t, nil
}

func (s *stubTenantService) UpdateTenant(_ context.Context, id string, in ports.TenantInput) (*domain.Tenant, error) {
	return nil, errors.New("not implemented")
}

func (s *stubTenantService) SetTenantActive(_ context.Context, id string, active bool) (*domain.Tenant, error) {
	return nil, errors.New("not implemented")
}

func (s *stubTenantService) DeleteTenant(_ context.Context, id string) error {
	return errors.New("not implemented")
}

// memoryCache is a map-backed ports.TenantCache without expiry.
type memoryCache struct {
	mu      sync.Mutex
	tenants map[string]*domain.Tenant
	list    []domain.Tenant
	hasList bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{tenants: make(map[string]*domain.Tenant)}
}

func (c *memoryCache) GetTenant(_ context.Context, id string) (*domain.Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tenants[id]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	clone := *t
	return &clone, nil
}

func (c *memoryCache) SetTenant(_ context.Context, t *domain.Tenant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *t
	c.tenants[t.ID] = &clone
	return nil
}

func (c *memoryCache) InvalidateTenant(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tenants, id)
	return nil
}

func (c *memoryCache) GetTenantList(_ context.Context) ([]domain.Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasList {
		return nil, ports.ErrCacheMiss
	}
	return append([]domain.Tenant(nil), c.list...), nil
}

func (c *memoryCache) SetTenantList(_ context.Context, tenants []domain.Tenant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append([]domain.Tenant(nil), tenants...)
	c.hasList = true
	return nil
}

func (c *memoryCache) InvalidateTenantList(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.hasList = false
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func globalUser() *domain.User {
	return &domain.User{ID: "su1", Role: domain.RoleSuperAdmin}
}

func scopedUser(tenantID string) *domain.User {
	return &domain.User{ID: "u1", Role: domain.RoleManager, TenantCompanyID: tenantID}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestResolver_GlobalOperatorLoadsTenantList(t *testing.T) {
	svc := newStubTenantService(
		domain.Tenant{ID: "t1", Name: "Acme", Active: true},
		domain.Tenant{ID: "t2", Name: "Umbrella", Active: false},
	)
	r := NewResolver(svc, newMemoryCache(), testLogger())

	r.Resolve(context.Background(), globalUser())

	scope := r.Snapshot()
	if scope.State != StateResolved {
		t.Fatalf("expected resolved, got %s", scope.State)
	}
	if !scope.IsGlobalOperator {
		t.Fatalf("super_admin must be a global operator")
	}
	if len(scope.AvailableTenants) != 2 {
		t.Fatalf("expected 2 available tenants, got %d", len(scope.AvailableTenants))
	}
	if scope.ActiveTenant != nil {
		t.Fatalf("global operator must start in the global view")
	}
}

func TestResolver_ScopedUserLoadsOwnTenant(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1", Name: "Acme", Active: true})
	r := NewResolver(svc, newMemoryCache(), testLogger())

	r.Resolve(context.Background(), scopedUser("t1"))

	scope := r.Snapshot()
	if scope.IsGlobalOperator {
		t.Fatalf("scoped manager must not be a global operator")
	}
	if scope.ActiveTenant == nil || scope.ActiveTenant.ID != "t1" {
		t.Fatalf("expected own tenant t1, got %+v", scope.ActiveTenant)
	}
	if len(scope.AvailableTenants) != 0 {
		t.Fatalf("scoped user must have no selectable tenants")
	}
}

func TestResolver_MissingOwnTenantDeniesScope(t *testing.T) {
	svc := newStubTenantService() // membership points at nothing
	r := NewResolver(svc, newMemoryCache(), testLogger())

	r.Resolve(context.Background(), scopedUser("ghost"))

	scope := r.Snapshot()
	if scope.State != StateResolved {
		t.Fatalf("resolution failure must still settle, got %s", scope.State)
	}
	if scope.ActiveTenant != nil {
		t.Fatalf("unresolvable membership must leave no active tenant")
	}
}

func TestResolver_SetActiveTenant(t *testing.T) {
	svc := newStubTenantService(
		domain.Tenant{ID: "t1", Name: "Acme"},
		domain.Tenant{ID: "t2", Name: "Umbrella"},
	)
	r := NewResolver(svc, newMemoryCache(), testLogger())
	r.Resolve(context.Background(), globalUser())

	if err := r.SetActiveTenant("t2"); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if got := r.Snapshot().ActiveTenant; got == nil || got.ID != "t2" {
		t.Fatalf("expected active tenant t2, got %+v", got)
	}

	// Unknown id is a no-op: active tenant unchanged.
	if err := r.SetActiveTenant("t3"); err != nil {
		t.Fatalf("unknown id must be a silent no-op, got %v", err)
	}
	if got := r.Snapshot().ActiveTenant; got == nil || got.ID != "t2" {
		t.Fatalf("active tenant changed by unknown id: %+v", got)
	}

	// Empty id returns to the global view.
	if err := r.SetActiveTenant(""); err != nil {
		t.Fatalf("clearing selection failed: %v", err)
	}
	if got := r.Snapshot().ActiveTenant; got != nil {
		t.Fatalf("expected global view, got %+v", got)
	}
}

func TestResolver_SetActiveTenantRequiresGlobalScope(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1"})
	r := NewResolver(svc, newMemoryCache(), testLogger())
	r.Resolve(context.Background(), scopedUser("t1"))

	if err := r.SetActiveTenant("t1"); !errors.Is(err, domain.ErrNotGlobalOperator) {
		t.Fatalf("expected ErrNotGlobalOperator, got %v", err)
	}
}

func TestResolver_UserChangeDropsPreviousScope(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1"}, domain.Tenant{ID: "t2"})
	r := NewResolver(svc, newMemoryCache(), testLogger())

	r.Resolve(context.Background(), globalUser())
	if len(r.Snapshot().AvailableTenants) == 0 {
		t.Fatalf("expected tenants for global operator")
	}

	// Account switch without a reload: tenant data from the previous user
	// must not leak into the new scope.
	r.Resolve(context.Background(), scopedUser("t1"))
	scope := r.Snapshot()
	if scope.IsGlobalOperator {
		t.Fatalf("stale global flag leaked into new user")
	}
	if len(scope.AvailableTenants) != 0 {
		t.Fatalf("stale tenant list leaked into new user")
	}
}

func TestResolver_SignOutForcesUnresolved(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1"})
	r := NewResolver(svc, newMemoryCache(), testLogger())
	r.Resolve(context.Background(), globalUser())

	r.Resolve(context.Background(), nil)
	scope := r.Snapshot()
	if scope.State != StateUnresolved {
		t.Fatalf("expected unresolved after sign-out, got %s", scope.State)
	}
	if scope.ActiveTenant != nil || len(scope.AvailableTenants) != 0 || scope.IsGlobalOperator {
		t.Fatalf("scope not cleared: %+v", scope)
	}
}

func TestResolver_ListServedFromCache(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1"})
	cache := newMemoryCache()
	r := NewResolver(svc, cache, testLogger())

	r.Resolve(context.Background(), globalUser())
	r.Resolve(context.Background(), globalUser())

	svc.mu.Lock()
	calls := svc.listCalls
	svc.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single backend list fetch, got %d", calls)
	}
}

func TestResolver_RefreshPicksUpNewTenant(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1", Name: "Acme"})
	cache := newMemoryCache()
	r := NewResolver(svc, cache, testLogger())
	r.Resolve(context.Background(), globalUser())

	// A tenant create mutation succeeded; the cache must be invalidated, not
	// merely left stale.
	if _, err := svc.CreateTenant(context.Background(), ports.TenantInput{Name: "Umbrella"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	r.Refresh(context.Background())

	found := false
	for _, tenant := range r.Snapshot().AvailableTenants {
		if tenant.Name == "Umbrella" {
			found = true
		}
	}
	if !found {
		t.Fatalf("refreshed tenant list is missing the new tenant")
	}
}

func TestResolver_RefreshKeepsActiveSelection(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1"}, domain.Tenant{ID: "t2"})
	r := NewResolver(svc, newMemoryCache(), testLogger())
	r.Resolve(context.Background(), globalUser())

	if err := r.SetActiveTenant("t1"); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	r.Refresh(context.Background())

	if got := r.Snapshot().ActiveTenant; got == nil || got.ID != "t1" {
		t.Fatalf("refresh dropped the active selection: %+v", got)
	}
}

func TestResolver_ListFetchFailureSettlesEmpty(t *testing.T) {
	svc := newStubTenantService(domain.Tenant{ID: "t1"})
	svc.listErr = errors.New("backend down")
	r := NewResolver(svc, newMemoryCache(), testLogger())

	r.Resolve(context.Background(), globalUser())

	scope := r.Snapshot()
	if scope.State != StateResolved {
		t.Fatalf("fetch failure must still settle, got %s", scope.State)
	}
	if len(scope.AvailableTenants) != 0 {
		t.Fatalf("expected empty tenant list on failure")
	}
}
