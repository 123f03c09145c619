package domain

import "time"

// Credential is a locally stored identity: the email/password pair the
// gateway authenticates against before any backend call is made. It carries
// no authorization data; roles and tenant membership live on User.
type Credential struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
