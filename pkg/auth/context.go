package auth

import "context"

type contextKey string

const identityKey contextKey = "auth_identity"

// WithIdentity returns a context carrying the validated caller identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the caller identity placed by the auth
// middleware. The second return is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok && identity != nil
}
