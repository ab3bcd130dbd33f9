package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

type sessionResponse struct {
	Outcome    session.Outcome `json:"outcome"`
	UserID     string          `json:"userId"`
	CustomerID string          `json:"customerId,omitempty"`
	Role       string          `json:"role"`
}

// SessionSync binds the cart to the authenticated caller.
func SessionSync(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		outcome := svc.Sync(r.Context(), identity)
		responses.WriteSuccess(w, sessionResponse{
			Outcome:    outcome,
			UserID:     identity.UserID,
			CustomerID: identity.CustomerID,
			Role:       identity.Role.String(),
		})
	}
}

// SessionEnd drops the caller's cart, as on logout.
func SessionEnd(svc session.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		outcome := svc.End(r.Context(), identity)
		responses.WriteSuccess(w, sessionResponse{
			Outcome:    outcome,
			UserID:     identity.UserID,
			CustomerID: identity.CustomerID,
			Role:       identity.Role.String(),
		})
	}
}
