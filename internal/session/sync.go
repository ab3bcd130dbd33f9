package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/cart"
	pkgAuth "github.com/angelmondragon/storefront-cart/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Outcome describes what Sync or End did to the caller's cart.
type Outcome string

const (
	OutcomeInitialized Outcome = "initialized"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeReset       Outcome = "reset"
	// OutcomeUnbound means the identity cannot hold a cart; no cart was touched.
	OutcomeUnbound Outcome = "unbound"
	// OutcomeHeld means another user of the same customer holds the cart.
	OutcomeHeld Outcome = "held"
)

type cartRegistry interface {
	Acquire(ctx context.Context, customerID string) (cart.Service, error)
	Lookup(customerID string) (cart.Service, bool)
}

// Service binds each customer's cart to the user the identity provider says
// is signed in, and gives handlers access to that cart while the binding
// cannot change underneath them.
type Service interface {
	Sync(ctx context.Context, identity pkgAuth.Identity) Outcome
	End(ctx context.Context, identity pkgAuth.Identity) Outcome
	Do(ctx context.Context, identity pkgAuth.Identity, fn func(cart.Service) error) error
}

type service struct {
	carts cartRegistry
	logg  *logger.Logger

	// locks holds one *sync.RWMutex per customer. Do takes the read side;
	// rebinding or dropping a cart takes the write side.
	locks sync.Map
}

// NewService constructs the session glue around the cart registry.
func NewService(carts cartRegistry, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{carts: carts, logg: logg}, nil
}

func (s *service) lockFor(customerID string) *sync.RWMutex {
	l, _ := s.locks.LoadOrStore(customerID, &sync.RWMutex{})
	return l.(*sync.RWMutex)
}

func scope(identity pkgAuth.Identity) (userID, customerID string, ok bool) {
	userID = strings.TrimSpace(identity.UserID)
	customerID = strings.TrimSpace(identity.CustomerID)
	return userID, customerID, userID != "" && customerID != "" && identity.Role.CanHoldCart()
}

// Sync initializes the customer's cart for the caller when nobody holds it.
// Repeated calls with the same identity are no-ops, and a cart held by
// another user of the customer is left alone. A holder whose role can no
// longer own a cart has it reset.
func (s *service) Sync(ctx context.Context, identity pkgAuth.Identity) Outcome {
	userID, customerID, ok := scope(identity)
	if !ok {
		return s.demote(ctx, userID, customerID)
	}
	ctx = s.logg.WithOwner(ctx, userID, customerID)

	svc, err := s.carts.Acquire(ctx, customerID)
	if err != nil {
		s.logg.Error(ctx, "load customer cart", err)
		return OutcomeUnbound
	}

	lock := s.lockFor(customerID)
	lock.RLock()
	outcome, settled := bindingOf(svc, userID)
	lock.RUnlock()
	if settled {
		return outcome
	}

	lock.Lock()
	defer lock.Unlock()
	if outcome, settled = bindingOf(svc, userID); settled {
		return outcome
	}
	s.logg.Info(ctx, "binding cart to session")
	svc.Initialize(ctx, userID, customerID, identity.CompanyID)
	return OutcomeInitialized
}

// demote resets the cart the user still holds after losing a cart-owning role.
func (s *service) demote(ctx context.Context, userID, customerID string) Outcome {
	if userID == "" || customerID == "" {
		return OutcomeUnbound
	}
	svc, found := s.carts.Lookup(customerID)
	if !found {
		return OutcomeUnbound
	}

	lock := s.lockFor(customerID)
	lock.Lock()
	defer lock.Unlock()
	if outcome, bound := bindingOf(svc, userID); !bound || outcome != OutcomeUnchanged {
		return OutcomeUnbound
	}
	ctx = s.logg.WithOwner(ctx, userID, customerID)
	s.logg.Info(ctx, "role can no longer hold a cart; resetting")
	svc.ResetCart(ctx)
	return OutcomeReset
}

// bindingOf reports the outcome when the cart is already bound.
func bindingOf(svc cart.Service, userID string) (Outcome, bool) {
	current := svc.Cart()
	if !svc.IsInitialized() || current == nil {
		return "", false
	}
	if current.UserID == userID {
		return OutcomeUnchanged, true
	}
	return OutcomeHeld, true
}

// End drops the caller's cart, as on logout. Carts held by someone else are
// not touched.
func (s *service) End(ctx context.Context, identity pkgAuth.Identity) Outcome {
	userID, customerID, ok := scope(identity)
	if !ok {
		return OutcomeUnbound
	}
	svc, found := s.carts.Lookup(customerID)
	if !found {
		return OutcomeUnchanged
	}

	lock := s.lockFor(customerID)
	lock.Lock()
	defer lock.Unlock()

	current := svc.Cart()
	if current == nil && !svc.IsInitialized() {
		return OutcomeUnchanged
	}
	if current != nil && current.UserID != userID {
		return OutcomeHeld
	}
	ctx = s.logg.WithCustomerID(ctx, customerID)
	s.logg.Info(ctx, "session ended; resetting cart")
	svc.ResetCart(ctx)
	return OutcomeReset
}

// Do runs fn against the caller's bound cart. The binding cannot change while
// fn runs. It fails with FORBIDDEN when the identity cannot hold a cart or the
// cart is bound to another user, and STATE_CONFLICT when no cart is bound.
func (s *service) Do(ctx context.Context, identity pkgAuth.Identity, fn func(cart.Service) error) error {
	userID, customerID, ok := scope(identity)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "identity cannot hold a cart")
	}
	svc, found := s.carts.Lookup(customerID)
	if !found {
		return errNotBound()
	}

	lock := s.lockFor(customerID)
	lock.RLock()
	defer lock.RUnlock()

	switch outcome, bound := bindingOf(svc, userID); {
	case !bound:
		return errNotBound()
	case outcome == OutcomeHeld:
		return pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another session").
			WithDetails(map[string]any{"customerId": customerID})
	}
	return fn(svc)
}

func errNotBound() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "cart not initialized")
}
