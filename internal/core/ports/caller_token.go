package ports

import "context"

type callerTokenKey struct{}

// WithCallerToken returns a context carrying the verified bearer token of the
// inbound caller. Outbound backend calls made under this context reuse that
// token, so a request is never executed with another identity's credentials.
func WithCallerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, callerTokenKey{}, token)
}

// CallerToken returns the caller's bearer token from the context, or the
// empty string when the context carries none.
func CallerToken(ctx context.Context) string {
	token, _ := ctx.Value(callerTokenKey{}).(string)
	return token
}
