package identity

import "context"

// Identity captures who is calling the engine. It is established by the
// authentication layer in front of this service; the engine trusts it without
// re-verification.
type Identity struct {
	UserID        string
	Email         string
	EmailVerified bool
}

type identityContextKey struct{}

// WithIdentity injects the caller identity into the supplied context, returning
// a derived context that request handlers pass down into the service layer.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		return context.WithValue(context.Background(), identityContextKey{}, id)
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext extracts a previously stored identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
