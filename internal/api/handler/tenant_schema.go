package handler

import (
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

type createTenantRequest struct {
	Name          string  `json:"name"           validate:"required"`
	CNPJ          string  `json:"cnpj"           validate:"required,len=14,numeric"`
	Email         *string `json:"email"          validate:"omitempty,email"`
	Phone         *string `json:"phone"          validate:"omitempty"`
	Segment       *string `json:"segment"        validate:"omitempty"`
	ContactPerson *string `json:"contact_person" validate:"omitempty"`
}

type updateTenantRequest struct {
	Name          string  `json:"name"           validate:"required"`
	CNPJ          string  `json:"cnpj"           validate:"required,len=14,numeric"`
	Email         *string `json:"email"          validate:"omitempty,email"`
	Phone         *string `json:"phone"          validate:"omitempty"`
	Segment       *string `json:"segment"        validate:"omitempty"`
	ContactPerson *string `json:"contact_person" validate:"omitempty"`
}

type tenantStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (r createTenantRequest) toInput() ports.TenantInput {
	return ports.TenantInput{
		Name:          r.Name,
		CNPJ:          r.CNPJ,
		Email:         r.Email,
		Phone:         r.Phone,
		Segment:       r.Segment,
		ContactPerson: r.ContactPerson,
	}
}

func (r updateTenantRequest) toInput() ports.TenantInput {
	return ports.TenantInput{
		Name:          r.Name,
		CNPJ:          r.CNPJ,
		Email:         r.Email,
		Phone:         r.Phone,
		Segment:       r.Segment,
		ContactPerson: r.ContactPerson,
	}
}
