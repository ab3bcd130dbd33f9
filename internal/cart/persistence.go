package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// KeyValueStore is the storage surface the cart snapshot is written to.
// Both pkg/redis.Client and kvstore.Repository satisfy it.
type KeyValueStore interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// Snapshot is the persisted subset of engine state. Loading flags are never
// stored.
type Snapshot struct {
	Cart          *Cart
	IsInitialized bool
}

type persistedState struct {
	Cart          *Cart `json:"cart"`
	IsInitialized bool  `json:"isInitialized"`
}

type persistedEnvelope struct {
	Version int            `json:"version"`
	State   persistedState `json:"state"`
}

// Persister reads and writes versioned cart snapshots under a single key.
type Persister struct {
	store   KeyValueStore
	key     string
	version int
}

// NewPersister builds a Persister for key at schema version.
func NewPersister(store KeyValueStore, key string, version int) (*Persister, error) {
	if store == nil {
		return nil, fmt.Errorf("key value store required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("storage key required")
	}
	if version <= 0 {
		return nil, fmt.Errorf("schema version must be positive")
	}
	return &Persister{store: store, key: key, version: version}, nil
}

// Save writes snap under the configured key.
func (p *Persister) Save(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(persistedEnvelope{
		Version: p.version,
		State: persistedState{
			Cart:          snap.Cart,
			IsInitialized: snap.IsInitialized,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := p.store.SetValue(ctx, p.key, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart snapshot")
	}
	return nil
}

// Load returns the stored snapshot. A missing key yields an empty snapshot and
// no error; corrupt or version-mismatched payloads yield an empty snapshot and
// a typed error so the caller can log and continue.
func (p *Persister) Load(ctx context.Context) (Snapshot, error) {
	raw, ok, err := p.store.GetValue(ctx, p.key)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart snapshot")
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return Snapshot{}, nil
	}

	var env persistedEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart snapshot")
	}
	if env.Version != p.version {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "cart snapshot schema version mismatch").
			WithDetails(map[string]any{"stored": env.Version, "expected": p.version})
	}

	snap := Snapshot{Cart: env.State.Cart, IsInitialized: env.State.IsInitialized}
	if snap.Cart == nil {
		snap.IsInitialized = false
	}
	return snap, nil
}

// sanitize repairs a rehydrated cart so it satisfies the aggregate rules:
// lines with unusable quantities are dropped, duplicates by product are
// collapsed onto the first line, quantities are clamped, line totals are
// derived again from quantity and unit price and the summary is recomputed
// against the current policy.
func sanitize(c *Cart, policy SummaryPolicy, defaultMax int) {
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	if !c.Status.IsValid() {
		c.Status = enums.CartStatusActive
	}
	kept := c.Items[:0]
	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		if _, dup := seen[item.ProductID]; dup {
			continue
		}
		seen[item.ProductID] = struct{}{}
		if item.MaxQuantity <= 0 {
			item.MaxQuantity = defaultMax
		}
		item.Quantity = min(item.Quantity, item.MaxQuantity)
		priced := pricing.CalculateOrderLine(item.Quantity, item.UnitPrice, item.VATRate)
		item.TotalPrice = priced.Subtotal
		item.VATAmount = priced.VATAmount
		kept = append(kept, item)
	}
	c.Items = kept
	c.Summary = RecalculateSummary(c.Items, policy)
}
