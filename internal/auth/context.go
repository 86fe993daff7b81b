// internal/auth/context.go
//
// Request principal for the admin panel.
//
// Usage
// -----
//     // Middleware attaches the principal once per request.
//     r = r.WithContext(auth.WithPrincipal(r.Context(), auth.Principal{Admin: true}))
//
//     // Handlers and templates read it back.
//     if auth.FromContext(r.Context()).Admin { … }
//
// Notes
// -----
// • There is one shared admin password, so the principal is a single flag.

package auth

import "context"

// principalKey is unexported to avoid context-key collisions.
type principalKey struct{}

// Principal describes who is making the request.
type Principal struct {
	Admin bool
}

// WithPrincipal returns a new context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext extracts the principal.  Anonymous when none is set.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
