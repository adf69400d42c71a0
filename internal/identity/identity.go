// internal/identity/identity.go
//
// Verified-caller context helpers.
//
// Context
// -------
// The identity provider is an external collaborator: it issues signed
// tokens, and this scaffold only verifies them and extracts a stable
// subject.  Handlers and middleware read the caller through these
// helpers; nothing downstream ever sees the raw token.
package identity

import "context"

// Identity is the verified caller: an opaque stable subject plus the
// email the provider attached to it.
type Identity struct {
	Subject string
	Email   string
}

// key is unexported to avoid context-key collisions.
type key struct{}

// WithIdentity returns a new context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, key{}, id)
}

// FromContext extracts the caller identity from ctx.  ok == false when
// no identity middleware ran on this request.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(key{}).(Identity)
	return id, ok
}
