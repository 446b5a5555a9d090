// Package rbac carries the authenticated identity through request contexts
// and gates HTTP routes by role.
package rbac

import (
	"context"

	"strategypilot/backend/internal/security"
)

type contextKey struct{}

// WithIdentity returns a context carrying the validated access identity.
func WithIdentity(ctx context.Context, id security.AccessIdentity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom returns the access identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (security.AccessIdentity, bool) {
	id, ok := ctx.Value(contextKey{}).(security.AccessIdentity)
	return id, ok
}
