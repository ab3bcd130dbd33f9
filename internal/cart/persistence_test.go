package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

type failingKV struct{}

func (failingKV) GetValue(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingKV) SetValue(ctx context.Context, key, value string) error {
	return errors.New("connection refused")
}

func TestNewPersisterValidates(t *testing.T) {
	if _, err := NewPersister(nil, "k", 1); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewPersister(newMemoryKV(), " ", 1); err == nil {
		t.Fatal("expected error for blank key")
	}
	if _, err := NewPersister(newMemoryKV(), "k", 0); err == nil {
		t.Fatal("expected error for zero version")
	}
}

func TestPersisterRoundTripWritesEnvelope(t *testing.T) {
	kv := newMemoryKV()
	p, err := NewPersister(kv, "cart-storage", 3)
	if err != nil {
		t.Fatalf("persister: %v", err)
	}

	c := &Cart{ID: "cart-1", CustomerID: "c1", Items: []LineItem{}}
	if err := p.Save(context.Background(), Snapshot{Cart: c, IsInitialized: true}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var envelope struct {
		Version int `json:"version"`
		State   struct {
			Cart          map[string]any `json:"cart"`
			IsInitialized bool           `json:"isInitialized"`
		} `json:"state"`
	}
	if err := json.Unmarshal([]byte(kv.values["cart-storage"]), &envelope); err != nil {
		t.Fatalf("decode stored envelope: %v", err)
	}
	if envelope.Version != 3 || !envelope.State.IsInitialized || envelope.State.Cart["id"] != "cart-1" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if _, ok := envelope.State.Cart["summary"]; !ok {
		t.Fatalf("expected summary in stored cart")
	}

	snap, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Cart == nil || snap.Cart.ID != "cart-1" || !snap.IsInitialized {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestPersisterLoadMissingKey(t *testing.T) {
	p, err := NewPersister(newMemoryKV(), "cart-storage", 1)
	if err != nil {
		t.Fatalf("persister: %v", err)
	}

	snap, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Cart != nil || snap.IsInitialized {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestPersisterLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code pkgerrors.Code
	}{
		{name: "corrupt", raw: `not json`, code: pkgerrors.CodeValidation},
		{name: "version mismatch", raw: `{"version":2,"state":{"cart":null,"isInitialized":false}}`, code: pkgerrors.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMemoryKV()
			kv.values["cart-storage"] = tt.raw
			p, err := NewPersister(kv, "cart-storage", 1)
			if err != nil {
				t.Fatalf("persister: %v", err)
			}

			snap, err := p.Load(context.Background())
			if !pkgerrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if snap.Cart != nil {
				t.Fatalf("expected no cart, got %+v", snap.Cart)
			}
		})
	}
}

func TestPersisterInitializedRequiresCart(t *testing.T) {
	kv := newMemoryKV()
	kv.values["cart-storage"] = `{"version":1,"state":{"cart":null,"isInitialized":true}}`
	p, err := NewPersister(kv, "cart-storage", 1)
	if err != nil {
		t.Fatalf("persister: %v", err)
	}

	snap, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.IsInitialized {
		t.Fatal("expected isInitialized=false without a cart")
	}
}

func TestPersisterTransportErrors(t *testing.T) {
	p, err := NewPersister(failingKV{}, "cart-storage", 1)
	if err != nil {
		t.Fatalf("persister: %v", err)
	}

	if _, err := p.Load(context.Background()); !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on load, got %v", err)
	}
	if err := p.Save(context.Background(), Snapshot{}); !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on save, got %v", err)
	}
}

func TestSanitizeRecomputesStoredLineTotals(t *testing.T) {
	c := &Cart{
		Status: enums.CartStatusPending,
		Items: []LineItem{
			{ID: "a", ProductID: "P1", Quantity: 2, MaxQuantity: 10, UnitPrice: 100, VATRate: 25, TotalPrice: 1, VATAmount: 999},
			{ID: "b", ProductID: "P2", Quantity: 3, UnitPrice: 250, VATRate: 0, TotalPrice: 0},
		},
		Summary: Summary{Subtotal: 1, Total: 1},
	}

	sanitize(c, testPolicy, 99)

	if c.Items[0].TotalPrice != 200 || c.Items[0].VATAmount != 50 {
		t.Fatalf("expected first line 200/50, got %d/%d", c.Items[0].TotalPrice, c.Items[0].VATAmount)
	}
	if c.Items[1].TotalPrice != 750 || c.Items[1].MaxQuantity != 99 {
		t.Fatalf("unexpected second line %+v", c.Items[1])
	}
	if c.Summary.Subtotal != 950 || c.Summary.ItemCount != 5 {
		t.Fatalf("expected summary from recomputed lines, got %+v", c.Summary)
	}
	if c.Status != enums.CartStatusPending {
		t.Fatalf("expected valid status to be kept, got %s", c.Status)
	}
}
