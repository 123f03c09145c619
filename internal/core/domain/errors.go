package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
	// ErrNotGlobalOperator marks operations reserved for global scope, such
	// as listing or switching tenants.
	ErrNotGlobalOperator = errors.New("operation requires global operator scope")
)
