// Package permission answers "can this session do X" as pure derivations
// over an explicit (session, tenant scope) pair. No network calls, no
// mutation; denials are boolean results, never errors.
package permission

import (
	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/session"
	"github.com/UnisoftSistemas/implantei-core/internal/core/tenantscope"
)

// Capability names a gated action. The allow-lists below are part of the
// product contract and are reproduced exactly as shipped.
type Capability string

const (
	CapManageTenants   Capability = "manage_tenants"
	CapManageUsers     Capability = "manage_users"
	CapCreateCompanies Capability = "create_companies"
	CapManageProjects  Capability = "manage_projects"
	CapAssignTasks     Capability = "assign_tasks"
	CapAccessDashboard Capability = "access_dashboard"
	CapViewAllData     Capability = "view_all_data"
	CapSwitchTenants   Capability = "switch_tenants"
)

// capabilityRoles holds the static role allow-lists. manage_tenants,
// view_all_data and switch_tenants are scope checks, not role checks, and
// are handled separately. Note access_dashboard deliberately omits
// super_admin: super admins are routed to the global dashboard and never see
// the tenant one.
var capabilityRoles = map[Capability][]domain.Role{
	CapManageUsers:     {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager},
	CapCreateCompanies: {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager},
	CapManageProjects:  {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager, domain.RoleConsultant},
	CapAssignTasks:     {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager, domain.RoleConsultant},
	CapAccessDashboard: {domain.RoleAdmin, domain.RoleManager, domain.RoleConsultant, domain.RoleTechnician},
}

// Gate is a pure view over one session snapshot and one scope snapshot.
// Construct a fresh Gate at every decision point; never cache one across
// state transitions.
type Gate struct {
	sess  session.Snapshot
	scope tenantscope.Scope
}

func NewGate(sess session.Snapshot, scope tenantscope.Scope) Gate {
	return Gate{sess: sess, scope: scope}
}

func (g Gate) user() *domain.User {
	if !g.sess.Authenticated() {
		return nil
	}
	return g.sess.User
}

func (g Gate) role() domain.Role {
	u := g.user()
	if u == nil {
		return ""
	}
	return u.Role
}

// IsGlobalOperator is true only for an authenticated session resolved to
// global scope.
func (g Gate) IsGlobalOperator() bool {
	return g.user() != nil && g.scope.IsGlobalOperator
}

// Can evaluates a capability against the static allow-lists. Unknown
// capabilities are denied.
func (g Gate) Can(c Capability) bool {
	switch c {
	case CapManageTenants, CapViewAllData, CapSwitchTenants:
		return g.IsGlobalOperator()
	}
	role := g.role()
	for _, allowed := range capabilityRoles[c] {
		if role == allowed {
			return true
		}
	}
	return false
}

// CanAccessTenant reports whether the session may view targetTenantID.
// Global operators access any tenant; everyone else only their own.
func (g Gate) CanAccessTenant(targetTenantID string) bool {
	u := g.user()
	if u == nil {
		return false
	}
	if g.scope.IsGlobalOperator {
		return true
	}
	return targetTenantID != "" && targetTenantID == u.TenantCompanyID
}

// CanModifyTenantData reports whether the session may mutate data belonging
// to targetTenantID. An empty target defaults to the active tenant; when no
// active tenant is resolved the check fails closed.
func (g Gate) CanModifyTenantData(targetTenantID string) bool {
	u := g.user()
	if u == nil {
		return false
	}
	if g.scope.IsGlobalOperator {
		return true
	}
	if u.Role != domain.RoleAdmin && u.Role != domain.RoleManager {
		return false
	}
	if targetTenantID == "" {
		if g.scope.ActiveTenant == nil {
			return false
		}
		targetTenantID = g.scope.ActiveTenant.ID
	}
	return targetTenantID == u.TenantCompanyID
}

func (g Gate) CanManageTenants() bool   { return g.Can(CapManageTenants) }
func (g Gate) CanManageUsers() bool     { return g.Can(CapManageUsers) }
func (g Gate) CanCreateCompanies() bool { return g.Can(CapCreateCompanies) }
func (g Gate) CanManageProjects() bool  { return g.Can(CapManageProjects) }
func (g Gate) CanAssignTasks() bool     { return g.Can(CapAssignTasks) }
func (g Gate) CanAccessDashboard() bool { return g.Can(CapAccessDashboard) }
func (g Gate) CanViewAllData() bool     { return g.Can(CapViewAllData) }
func (g Gate) CanSwitchTenants() bool   { return g.Can(CapSwitchTenants) }

// Cascading role predicates: each level includes the ones above it, with
// technician and client standing alone.
func (g Gate) IsAdmin() bool {
	return g.role() == domain.RoleAdmin || g.IsGlobalOperator()
}

func (g Gate) IsManager() bool {
	return g.role() == domain.RoleManager || g.IsAdmin()
}

func (g Gate) IsConsultant() bool {
	return g.role() == domain.RoleConsultant || g.IsManager()
}

func (g Gate) IsTechnician() bool { return g.role() == domain.RoleTechnician }
func (g Gate) IsClient() bool     { return g.role() == domain.RoleClient }

// Capabilities returns the full capability map for the session, used by the
// gateway's session endpoint so the SPA does not re-implement allow-lists.
func (g Gate) Capabilities() map[Capability]bool {
	caps := map[Capability]bool{
		CapManageTenants:   g.CanManageTenants(),
		CapManageUsers:     g.CanManageUsers(),
		CapCreateCompanies: g.CanCreateCompanies(),
		CapManageProjects:  g.CanManageProjects(),
		CapAssignTasks:     g.CanAssignTasks(),
		CapAccessDashboard: g.CanAccessDashboard(),
		CapViewAllData:     g.CanViewAllData(),
		CapSwitchTenants:   g.CanSwitchTenants(),
	}
	return caps
}
