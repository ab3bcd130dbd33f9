package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-cart/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-cart/pkg/auth"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// IdentitySyncer binds the cart to the identity carried by each request.
type IdentitySyncer interface {
	Sync(ctx context.Context, identity pkgAuth.Identity)
}

// SyncFunc adapts a plain function to IdentitySyncer.
type SyncFunc func(ctx context.Context, identity pkgAuth.Identity)

func (f SyncFunc) Sync(ctx context.Context, identity pkgAuth.Identity) {
	f(ctx, identity)
}

// Auth validates a bearer token, seeds the request context with the caller
// identity and keeps the cart bound to it.
func Auth(cfg config.JWTConfig, syncer IdentitySyncer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			identity := claims.Identity()
			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":     identity.UserID,
					"customer_id": identity.CustomerID,
					"actor_role":  identity.Role.String(),
				})
			}

			if syncer != nil {
				syncer.Sync(ctx, identity)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
