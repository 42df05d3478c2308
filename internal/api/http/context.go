package http

import (
	"context"

	"github.com/devoptimist/builder/internal/api/domain"
)

type authCtxKey struct{}

// withAuthContext stores the resolved caller identity for downstream handlers.
func withAuthContext(ctx context.Context, auth domain.AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey{}, auth)
}

// AuthContextFrom returns the caller identity set by the authn middleware.
// The second return is false on unauthenticated requests.
func AuthContextFrom(ctx context.Context) (domain.AuthContext, bool) {
	auth, ok := ctx.Value(authCtxKey{}).(domain.AuthContext)
	return auth, ok
}
