package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/storefront-cart/pkg/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the caller identity seeded by Auth.
func IdentityFromContext(ctx context.Context) (pkgAuth.Identity, bool) {
	if ctx == nil {
		return pkgAuth.Identity{}, false
	}
	v, ok := ctx.Value(ctxIdentity).(pkgAuth.Identity)
	return v, ok
}

func UserIDFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.UserID
}

func CustomerIDFromContext(ctx context.Context) string {
	identity, _ := IdentityFromContext(ctx)
	return identity.CustomerID
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, identity pkgAuth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
