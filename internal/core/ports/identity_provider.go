package ports

import "context"

// Identity is the provider-level assertion that the caller is authenticated
// at the transport level. It carries no application semantics; authorization
// decisions additionally require the resolved application user.
type Identity struct {
	UID   string
	Email string
}

// IdentityProvider is the narrow contract with the external identity
// service. Nothing of the provider's internal protocol leaks past this
// interface.
type IdentityProvider interface {
	// Subscribe registers fn to be invoked with the current identity (or nil
	// on sign-out) whenever it changes, and returns an unsubscribe handle.
	// Token refreshes do not re-trigger the subscription.
	Subscribe(fn func(*Identity)) (unsubscribe func())

	// SignIn authenticates with credentials. On failure the current identity
	// is left untouched.
	SignIn(ctx context.Context, email, password string) (*Identity, error)

	// SignOut clears the provider session and notifies subscribers.
	SignOut(ctx context.Context) error

	// IDToken returns a short-lived bearer token for the current identity.
	IDToken(ctx context.Context) (string, error)
}

// TokenVerifier validates a bearer token and returns the identity it was
// issued for. Used by the gateway to authenticate inbound requests.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*Identity, error)
}

// TokenSource supplies a bearer token for outbound backend calls. An empty
// token means no identity is present and the Authorization header is
// omitted.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}
