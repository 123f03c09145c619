package domain

import "time"

// Tenant is a company operating on the platform. The identifier is
// immutable; tenants are deactivated, never hard-deleted through this layer.
type Tenant struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CNPJ          string `json:"cnpj"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Segment       string `json:"segment,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Active        bool   `json:"active"`
	// Denormalized counts used for display only; never authoritative.
	UserCount    int       `json:"user_count,omitempty"`
	ProjectCount int       `json:"project_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
