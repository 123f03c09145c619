package domain

import "time"

// Role is the closed set of application roles. The backend never returns a
// value outside this set; anything else is treated as no role at all.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleConsultant Role = "consultant"
	RoleTechnician Role = "technician"
	RoleClient     Role = "client"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleConsultant, RoleTechnician, RoleClient:
		return true
	}
	return false
}

// User is the application-level user record the backend resolves for an
// authenticated identity. Users are never deleted, only deactivated.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Role            Role      `json:"role"`
	TenantCompanyID string    `json:"tenant_company_id,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsGlobalOperator reports whether the user operates in global scope: a
// super_admin role or the absence of a tenant membership. Every other user
// belongs to exactly one tenant and that membership never changes after
// creation.
func (u *User) IsGlobalOperator() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleSuperAdmin || u.TenantCompanyID == ""
}
