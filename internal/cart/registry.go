package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-cart/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// Registry hands out one engine per customer. Each engine persists under its
// own storage key and is rehydrated the first time the customer is seen.
type Registry interface {
	Acquire(ctx context.Context, customerID string) (Service, error)
	Lookup(customerID string) (Service, bool)
	Len() int
	Wait()
}

type registryRecorder interface {
	operationRecorder
	SetActiveCarts(count int)
}

// RegistryDeps are shared by every engine the registry builds.
type RegistryDeps struct {
	Oracle    pricing.Oracle
	Store     KeyValueStore
	Submitter OrderSubmitter
	Metrics   registryRecorder
	Logger    *logger.Logger
	Now       func() time.Time
	NewID     func() string
}

// RegistryOptions configure storage keys and the engines themselves.
type RegistryOptions struct {
	StorageKey    string
	SchemaVersion int
	Engine        Options
}

type slot struct {
	ready chan struct{}
	svc   Service
	err   error
}

type registry struct {
	mu    sync.Mutex
	slots map[string]*slot

	deps RegistryDeps
	opts RegistryOptions
}

// NewRegistry validates the shared stack used to build per-customer engines.
func NewRegistry(deps RegistryDeps, opts RegistryOptions) (Registry, error) {
	if deps.Oracle == nil {
		return nil, fmt.Errorf("pricing oracle required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("key-value store required")
	}
	if deps.Submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	opts.StorageKey = strings.TrimSpace(opts.StorageKey)
	if opts.StorageKey == "" {
		return nil, fmt.Errorf("storage key required")
	}
	if opts.SchemaVersion <= 0 {
		return nil, fmt.Errorf("schema version must be positive")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCartMetrics(nil)
	}
	return &registry{slots: map[string]*slot{}, deps: deps, opts: opts}, nil
}

// StorageKeyFor derives the per-customer snapshot key from the base key.
func StorageKeyFor(base, customerID string) string {
	return base + ":" + IDForCustomer(customerID)
}

// Acquire returns the customer's engine, building and rehydrating it on
// first use. Concurrent callers for the same customer share one build.
func (r *registry) Acquire(ctx context.Context, customerID string) (Service, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	r.mu.Lock()
	s, ok := r.slots[customerID]
	if !ok {
		s = &slot{ready: make(chan struct{})}
		r.slots[customerID] = s
	}
	r.mu.Unlock()

	if ok {
		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return s.svc, s.err
	}

	s.svc, s.err = r.build(ctx, customerID)
	close(s.ready)

	r.mu.Lock()
	if s.err != nil {
		delete(r.slots, customerID)
	}
	count := len(r.slots)
	r.mu.Unlock()
	r.deps.Metrics.SetActiveCarts(count)

	return s.svc, s.err
}

func (r *registry) build(ctx context.Context, customerID string) (Service, error) {
	persister, err := NewPersister(r.deps.Store, StorageKeyFor(r.opts.StorageKey, customerID), r.opts.SchemaVersion)
	if err != nil {
		return nil, err
	}
	svc, err := NewService(Deps{
		Oracle:    r.deps.Oracle,
		Store:     persister,
		Submitter: r.deps.Submitter,
		Metrics:   r.deps.Metrics,
		Logger:    r.deps.Logger,
		Now:       r.deps.Now,
		NewID:     r.deps.NewID,
	}, r.opts.Engine)
	if err != nil {
		return nil, err
	}

	ctx = r.deps.Logger.WithCustomerID(ctx, customerID)
	svc.Rehydrate(ctx)
	if current := svc.Cart(); current != nil && current.CustomerID != customerID {
		r.deps.Logger.Warn(ctx, "persisted cart belongs to another customer; discarding")
		svc.ResetCart(ctx)
	}
	r.deps.Logger.Debug(ctx, "customer cart loaded")
	return svc, nil
}

// Lookup returns the customer's engine if it has already been built.
func (r *registry) Lookup(customerID string) (Service, bool) {
	r.mu.Lock()
	s, ok := r.slots[strings.TrimSpace(customerID)]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-s.ready:
		return s.svc, s.err == nil && s.svc != nil
	default:
		return nil, false
	}
}

// Len reports how many customer engines are loaded.
func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Wait blocks until every loaded engine finishes its background refreshes.
func (r *registry) Wait() {
	r.mu.Lock()
	slots := make([]*slot, 0, len(r.slots))
	for _, s := range r.slots {
		slots = append(slots, s)
	}
	r.mu.Unlock()

	for _, s := range slots {
		<-s.ready
		if s.svc != nil {
			s.svc.Wait()
		}
	}
}
