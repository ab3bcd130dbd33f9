package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/api/validators"
	cartsvc "github.com/angelmondragon/storefront-cart/internal/cart"
	pkgAuth "github.com/angelmondragon/storefront-cart/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Carts runs fn against the caller's bound cart.
type Carts interface {
	Do(ctx context.Context, identity pkgAuth.Identity, fn func(cartsvc.Service) error) error
}

// CartFetch returns the cart snapshot and selectors. Callers without a bound
// cart get an empty view.
func CartFetch(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerOf(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err = carts.Do(r.Context(), identity, func(svc cartsvc.Service) error {
			responses.WriteSuccess(w, newCartView(svc))
			return nil
		})
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			responses.WriteSuccess(w, CartView{})
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// CartAddItem prices a product and merges it into the cart.
func CartAddItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerOf(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = carts.Do(r.Context(), identity, func(svc cartsvc.Service) error {
			if !svc.AddToCart(r.Context(), payload.toInput()) {
				return pkgerrors.New(pkgerrors.CodeDependency, "product could not be priced").
					WithDetails(map[string]any{"productId": payload.ProductID})
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(svc))
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// CartUpdateItem sets the quantity of a line; zero or below removes it.
func CartUpdateItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerOf(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := chi.URLParam(r, "itemID")
		if err := validators.ValidatePathID("itemID", itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = carts.Do(r.Context(), identity, func(svc cartsvc.Service) error {
			if !svc.UpdateQuantity(r.Context(), itemID, *payload.Quantity) {
				return lineNotFound(itemID)
			}
			responses.WriteSuccess(w, newCartView(svc))
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// CartRemoveItem deletes a line from the cart.
func CartRemoveItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerOf(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := chi.URLParam(r, "itemID")
		if err := validators.ValidatePathID("itemID", itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = carts.Do(r.Context(), identity, func(svc cartsvc.Service) error {
			if !svc.RemoveFromCart(r.Context(), itemID) {
				return lineNotFound(itemID)
			}
			responses.WriteSuccess(w, newCartView(svc))
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// CartClear empties the cart while keeping it bound to the caller.
func CartClear(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withCart(carts, logg, func(r *http.Request, w http.ResponseWriter, svc cartsvc.Service) error {
		svc.ClearCart(r.Context())
		responses.WriteSuccess(w, newCartView(svc))
		return nil
	})
}

// CartRefresh re-prices every line against the pricing backend.
func CartRefresh(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withCart(carts, logg, func(r *http.Request, w http.ResponseWriter, svc cartsvc.Service) error {
		svc.RefreshPrices(r.Context())
		responses.WriteSuccess(w, newCartView(svc))
		return nil
	})
}

// CartCheckout submits the cart for order processing.
func CartCheckout(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withCart(carts, logg, func(r *http.Request, w http.ResponseWriter, svc cartsvc.Service) error {
		if svc.UniqueItemCount() == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		if !svc.Checkout(r.Context()) {
			return pkgerrors.New(pkgerrors.CodeDependency, "checkout could not be submitted")
		}
		responses.WriteSuccess(w, checkoutResponse{CheckedOut: true, Cart: newCartView(svc)})
		return nil
	})
}

// CartLineByProduct returns the line holding the given product.
func CartLineByProduct(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerOf(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := chi.URLParam(r, "productID")
		if err := validators.ValidatePathID("productID", productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = carts.Do(r.Context(), identity, func(svc cartsvc.Service) error {
			line, ok := svc.FindLineByProductID(productID)
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart").
					WithDetails(map[string]any{"productId": productID})
			}
			responses.WriteSuccess(w, line)
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// withCart wraps handlers that need nothing from the request but the caller.
func withCart(carts Carts, logg *logger.Logger, fn func(r *http.Request, w http.ResponseWriter, svc cartsvc.Service) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerOf(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err = carts.Do(r.Context(), identity, func(svc cartsvc.Service) error {
			return fn(r, w, svc)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

func callerOf(r *http.Request, carts Carts) (pkgAuth.Identity, error) {
	if carts == nil {
		return pkgAuth.Identity{}, serviceUnavailable()
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return pkgAuth.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}
	return identity, nil
}

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
}

func lineNotFound(itemID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").
		WithDetails(map[string]any{"itemId": itemID})
}
