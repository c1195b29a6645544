package auth

import (
	"context"

	"github.com/cardcycle/cardcycle/internal/model"
)

type contextKey struct{}

// WithAuthContext returns a copy of ctx carrying the authenticated identity.
func WithAuthContext(ctx context.Context, a *model.AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the identity stored by WithAuthContext, or nil.
func FromContext(ctx context.Context) *model.AuthContext {
	a, _ := ctx.Value(contextKey{}).(*model.AuthContext)
	return a
}

// OwnerID returns the id of the user every record of the request belongs to.
// It is empty for unauthenticated requests.
func OwnerID(ctx context.Context) string {
	if a := FromContext(ctx); a != nil {
		return a.UserID
	}
	return ""
}
