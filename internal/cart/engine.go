package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/google/uuid"
)

const (
	opInitialize      = "initialize"
	opAddToCart       = "add_to_cart"
	opUpdateQuantity  = "update_quantity"
	opRemoveFromCart  = "remove_from_cart"
	opClearCart       = "clear_cart"
	opResetCart       = "reset_cart"
	opCheckout        = "checkout"
	opRefreshPrices   = "refresh_prices"
	opRehydrate       = "rehydrate"
	defaultQuantity   = 1
	defaultMaxPerLine = 99
)

// OrderSubmitter hands a cart to the order pipeline.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, c *Cart) error
}

type snapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

type operationRecorder interface {
	IncOperation(operation, outcome string)
	AddLineItems(delta int)
}

// AddItemInput describes a product being added to the cart.
type AddItemInput struct {
	ProductID    string
	ProductName  string
	Quantity     int
	ProductImage string
	ProductGroup string
	StockUnit    string
	MaxQuantity  int
	Discount     *float64
}

// Service is the cart state engine. Mutations are serialized; selectors read
// a consistent view and never block on pricing calls.
type Service interface {
	Initialize(ctx context.Context, userID, customerID, companyID string)
	AddToCart(ctx context.Context, input AddItemInput) bool
	UpdateQuantity(ctx context.Context, itemID string, quantity int) bool
	RemoveFromCart(ctx context.Context, itemID string) bool
	ClearCart(ctx context.Context)
	ResetCart(ctx context.Context)
	Checkout(ctx context.Context) bool
	RefreshPrices(ctx context.Context)
	RecalculateSummary(ctx context.Context)
	Rehydrate(ctx context.Context)
	Wait()

	Cart() *Cart
	IsInitialized() bool
	IsLoading() bool
	ItemCount() int
	UniqueItemCount() int
	Subtotal() int64
	Total() int64
	TotalDiscount() int64
	FindLineByProductID(productID string) (*LineItem, bool)
}

// Options carries the tunables the engine needs from configuration.
type Options struct {
	DefaultCompanyID   string
	DefaultMaxQuantity int
	Summary            SummaryPolicy
}

// Deps groups the collaborators of the engine.
type Deps struct {
	Oracle    pricing.Oracle
	Store     snapshotStore
	Submitter OrderSubmitter
	Metrics   operationRecorder
	Logger    *logger.Logger
	Now       func() time.Time
	NewID     func() string
}

type engine struct {
	// opMu serializes mutating operations, including their oracle round trips.
	opMu sync.Mutex
	// mu guards the fields below for selectors.
	mu          sync.RWMutex
	cart        *Cart
	initialized bool
	loading     bool
	// reported is the line count last added to the shared line-item gauge.
	reported int

	persistMu sync.Mutex
	bg        sync.WaitGroup

	oracle    pricing.Oracle
	store     snapshotStore
	submitter OrderSubmitter
	metrics   operationRecorder
	logg      *logger.Logger
	opts      Options
	now       func() time.Time
	newID     func() string
}

// NewService builds a cart engine backed by the provided stack.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Oracle == nil {
		return nil, fmt.Errorf("pricing oracle required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if deps.Submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCartMetrics(nil)
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	opts.DefaultCompanyID = strings.TrimSpace(opts.DefaultCompanyID)
	if opts.DefaultMaxQuantity <= 0 {
		opts.DefaultMaxQuantity = defaultMaxPerLine
	}
	return &engine{
		oracle:    deps.Oracle,
		store:     deps.Store,
		submitter: deps.Submitter,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		opts:      opts,
		now:       deps.Now,
		newID:     deps.NewID,
	}, nil
}

// Initialize binds the engine to a user and customer. A cart already owned by
// the same pair is reused and re-priced in the background.
func (e *engine) Initialize(ctx context.Context, userID, customerID, companyID string) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	userID = strings.TrimSpace(userID)
	customerID = strings.TrimSpace(customerID)
	ctx = e.logg.WithOperation(e.logg.WithOwner(ctx, userID, customerID), opInitialize)
	if userID == "" || customerID == "" {
		e.logg.Warn(ctx, "cart initialize skipped: user and customer required")
		e.metrics.IncOperation(opInitialize, metrics.OutcomeNoop)
		return
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		companyID = e.opts.DefaultCompanyID
	}

	e.mu.Lock()
	reuse := e.cart.ownedBy(userID, customerID)
	if !reuse {
		e.cart = newCart(userID, customerID, companyID, e.now())
	}
	e.initialized = true
	hasItems := len(e.cart.Items) > 0
	e.reportLinesLocked(len(e.cart.Items))
	e.mu.Unlock()

	e.persist(ctx)
	e.metrics.IncOperation(opInitialize, metrics.OutcomeSuccess)

	if reuse && hasItems {
		e.logg.Debug(ctx, "reusing persisted cart; refreshing prices")
		bgCtx := context.WithoutCancel(ctx)
		e.bg.Add(1)
		go func() {
			defer e.bg.Done()
			e.RefreshPrices(bgCtx)
		}()
	}
}

// AddToCart prices the product and merges it into the cart. Nothing is
// written unless the oracle call succeeds.
func (e *engine) AddToCart(ctx context.Context, input AddItemInput) bool {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	input.ProductID = strings.TrimSpace(input.ProductID)
	if input.Quantity == 0 {
		input.Quantity = defaultQuantity
	}
	if input.MaxQuantity <= 0 {
		input.MaxQuantity = e.opts.DefaultMaxQuantity
	}
	if input.ProductID == "" || input.Quantity < 0 {
		e.metrics.IncOperation(opAddToCart, metrics.OutcomeNoop)
		return false
	}

	current := e.Cart()
	if current == nil {
		e.logg.Warn(ctx, "add to cart rejected: cart not initialized")
		e.metrics.IncOperation(opAddToCart, metrics.OutcomeNoop)
		return false
	}
	ctx = e.logg.WithCartID(ctx, current.ID)
	ctx = e.logg.WithProductID(ctx, input.ProductID)

	e.setLoading(true)
	defer e.setLoading(false)

	price, err := e.oracle.FetchPrice(ctx, current.CompanyID, current.CustomerID, input.ProductID)
	if err != nil {
		e.logg.Error(ctx, "add to cart pricing failed", err)
		e.metrics.IncOperation(opAddToCart, metrics.OutcomeFailure)
		return false
	}
	if price == nil {
		e.logg.Warn(ctx, "add to cart pricing returned no price")
		e.metrics.IncOperation(opAddToCart, metrics.OutcomeFailure)
		return false
	}

	now := e.now()
	e.mu.Lock()
	if e.cart == nil {
		e.mu.Unlock()
		e.metrics.IncOperation(opAddToCart, metrics.OutcomeNoop)
		return false
	}
	if idx := e.cart.indexOfProduct(input.ProductID); idx >= 0 {
		line := &e.cart.Items[idx]
		line.Quantity = min(line.Quantity+input.Quantity, line.MaxQuantity)
		applyPrice(line, *price, now)
	} else {
		line := LineItem{
			ID:           e.newID(),
			ProductID:    input.ProductID,
			ProductName:  input.ProductName,
			ProductImage: input.ProductImage,
			ProductGroup: input.ProductGroup,
			StockUnit:    input.StockUnit,
			Quantity:     min(input.Quantity, input.MaxQuantity),
			MaxQuantity:  input.MaxQuantity,
			Discount:     input.Discount,
			IsAvailable:  true,
			AddedAt:      now,
		}
		applyPrice(&line, *price, now)
		e.cart.Items = append(e.cart.Items, line)
	}
	e.touchLocked(now)
	e.mu.Unlock()

	e.persist(ctx)
	e.metrics.IncOperation(opAddToCart, metrics.OutcomeSuccess)
	return true
}

// UpdateQuantity sets a line's quantity, removing it at zero or below, then
// re-prices every remaining line. It reports whether the line existed.
func (e *engine) UpdateQuantity(ctx context.Context, itemID string, quantity int) bool {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.cart == nil {
		e.mu.Unlock()
		e.metrics.IncOperation(opUpdateQuantity, metrics.OutcomeNoop)
		return false
	}
	idx := e.cart.indexOfItem(itemID)
	if idx < 0 {
		e.mu.Unlock()
		e.metrics.IncOperation(opUpdateQuantity, metrics.OutcomeNoop)
		return false
	}
	now := e.now()
	if quantity <= 0 {
		e.cart.removeAt(idx)
	} else {
		line := &e.cart.Items[idx]
		line.Quantity = min(quantity, line.MaxQuantity)
		priced := pricing.CalculateOrderLine(line.Quantity, line.UnitPrice, line.VATRate)
		line.TotalPrice = priced.Subtotal
		line.VATAmount = priced.VATAmount
		line.UpdatedAt = now
	}
	e.touchLocked(now)
	cartID := e.cart.ID
	e.mu.Unlock()

	ctx = e.logg.WithCartID(ctx, cartID)
	e.persist(ctx)
	e.metrics.IncOperation(opUpdateQuantity, metrics.OutcomeSuccess)

	e.reconcile(ctx)
	return true
}

// RemoveFromCart deletes a line. Emptying the cart skips the price refresh.
func (e *engine) RemoveFromCart(ctx context.Context, itemID string) bool {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.cart == nil {
		e.mu.Unlock()
		e.metrics.IncOperation(opRemoveFromCart, metrics.OutcomeNoop)
		return false
	}
	idx := e.cart.indexOfItem(itemID)
	if idx < 0 {
		e.mu.Unlock()
		e.metrics.IncOperation(opRemoveFromCart, metrics.OutcomeNoop)
		return false
	}
	e.cart.removeAt(idx)
	e.touchLocked(e.now())
	remaining := len(e.cart.Items)
	cartID := e.cart.ID
	e.mu.Unlock()

	ctx = e.logg.WithCartID(ctx, cartID)
	e.persist(ctx)
	e.metrics.IncOperation(opRemoveFromCart, metrics.OutcomeSuccess)

	if remaining > 0 {
		e.reconcile(ctx)
	}
	return true
}

// ClearCart empties the items but keeps the cart and its ownership.
func (e *engine) ClearCart(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if !e.clear() {
		e.metrics.IncOperation(opClearCart, metrics.OutcomeNoop)
		return
	}
	e.persist(ctx)
	e.metrics.IncOperation(opClearCart, metrics.OutcomeSuccess)
}

// ResetCart drops the cart entirely, as on logout.
func (e *engine) ResetCart(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	e.cart = nil
	e.initialized = false
	e.loading = false
	e.reportLinesLocked(0)
	e.mu.Unlock()

	e.persist(ctx)
	e.metrics.IncOperation(opResetCart, metrics.OutcomeSuccess)
}

// Checkout moves the cart to PENDING and submits it. On success the items are
// cleared and the cart is reopened as ACTIVE, so a PENDING status is only
// visible while the submission is in flight. On failure the cart returns to
// ACTIVE with its items intact.
func (e *engine) Checkout(ctx context.Context) bool {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.cart == nil || len(e.cart.Items) == 0 {
		e.mu.Unlock()
		e.metrics.IncOperation(opCheckout, metrics.OutcomeNoop)
		return false
	}
	e.cart.Status = enums.CartStatusPending
	e.loading = true
	submitted := e.cart.clone()
	e.mu.Unlock()
	defer e.setLoading(false)

	ctx = e.logg.WithOperation(e.logg.WithCartID(ctx, submitted.ID), opCheckout)
	e.persist(ctx)

	if err := e.submitter.SubmitOrder(ctx, submitted); err != nil {
		e.logg.Error(ctx, "checkout submission failed", err)
		e.mu.Lock()
		if e.cart != nil {
			e.cart.Status = enums.CartStatusActive
		}
		e.mu.Unlock()
		e.persist(ctx)
		e.metrics.IncOperation(opCheckout, metrics.OutcomeFailure)
		return false
	}

	e.clear()
	e.mu.Lock()
	if e.cart != nil {
		e.cart.Status = enums.CartStatusActive
	}
	e.mu.Unlock()
	e.persist(ctx)
	e.logg.Info(ctx, "cart checked out")
	e.metrics.IncOperation(opCheckout, metrics.OutcomeSuccess)
	return true
}

// RefreshPrices re-prices every line in one batch call.
func (e *engine) RefreshPrices(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.reconcile(ctx)
}

// reconcile expects opMu to be held. Products the oracle omits keep
// their previous prices; the summary is recomputed on every outcome.
func (e *engine) reconcile(ctx context.Context) {
	current := e.Cart()
	if current == nil || len(current.Items) == 0 {
		e.metrics.IncOperation(opRefreshPrices, metrics.OutcomeNoop)
		return
	}
	ctx = e.logg.WithCartID(ctx, current.ID)
	if current.CustomerID == "" {
		e.logg.Warn(ctx, "price refresh skipped: customer scope missing")
		e.metrics.IncOperation(opRefreshPrices, metrics.OutcomeNoop)
		return
	}

	prices, err := e.oracle.FetchPrices(ctx, current.CompanyID, current.CustomerID, current.productIDs())
	now := e.now()

	e.mu.Lock()
	if e.cart == nil {
		e.mu.Unlock()
		return
	}
	if err == nil {
		for i := range e.cart.Items {
			line := &e.cart.Items[i]
			if price, ok := prices[line.ProductID]; ok {
				applyPrice(line, price, now)
			}
		}
	}
	e.touchLocked(now)
	e.mu.Unlock()

	e.persist(ctx)
	if err != nil {
		e.logg.Error(ctx, "price refresh failed; keeping previous prices", err)
		e.metrics.IncOperation(opRefreshPrices, metrics.OutcomeFailure)
		return
	}
	e.metrics.IncOperation(opRefreshPrices, metrics.OutcomeSuccess)
}

// RecalculateSummary recomputes the summary from the current items.
func (e *engine) RecalculateSummary(ctx context.Context) {
	e.mu.Lock()
	if e.cart == nil {
		e.mu.Unlock()
		return
	}
	e.cart.Summary = RecalculateSummary(e.cart.Items, e.opts.Summary)
	e.mu.Unlock()
	e.persist(ctx)
}

// Rehydrate restores the last persisted snapshot. Missing, corrupt or
// version-mismatched data leaves the engine empty.
func (e *engine) Rehydrate(ctx context.Context) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap, err := e.store.Load(ctx)
	if err != nil {
		e.logg.Warn(ctx, fmt.Sprintf("discarding persisted cart: %v", err))
		e.metrics.IncOperation(opRehydrate, metrics.OutcomeFailure)
		snap = Snapshot{}
	}
	if snap.Cart != nil {
		sanitize(snap.Cart, e.opts.Summary, e.opts.DefaultMaxQuantity)
	}

	e.mu.Lock()
	e.cart = snap.Cart
	e.initialized = snap.IsInitialized
	e.loading = false
	count := 0
	if e.cart != nil {
		count = len(e.cart.Items)
	}
	e.reportLinesLocked(count)
	e.mu.Unlock()

	if err == nil {
		e.metrics.IncOperation(opRehydrate, metrics.OutcomeSuccess)
	}
}

// Wait blocks until background refreshes started by Initialize finish.
func (e *engine) Wait() {
	e.bg.Wait()
}

// clear empties the cart items; it reports false when there is no cart.
func (e *engine) clear() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cart == nil {
		return false
	}
	e.cart.Items = []LineItem{}
	e.touchLocked(e.now())
	return true
}

// touchLocked expects mu to be held for writing.
func (e *engine) touchLocked(now time.Time) {
	e.cart.Summary = RecalculateSummary(e.cart.Items, e.opts.Summary)
	e.cart.UpdatedAt = now
	e.reportLinesLocked(len(e.cart.Items))
}

// reportLinesLocked expects mu to be held for writing.
func (e *engine) reportLinesLocked(count int) {
	e.metrics.AddLineItems(count - e.reported)
	e.reported = count
}

func (e *engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}

func (e *engine) persist(ctx context.Context) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	e.mu.RLock()
	snap := Snapshot{Cart: e.cart.clone(), IsInitialized: e.initialized}
	e.mu.RUnlock()

	if err := e.store.Save(ctx, snap); err != nil {
		e.logg.Error(ctx, "persist cart snapshot", err)
	}
}
