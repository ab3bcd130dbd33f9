package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCartMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.IncOperation("add_to_cart", OutcomeSuccess)
	m.IncOperation("add_to_cart", OutcomeSuccess)
	m.IncOperation("", OutcomeFailure)
	m.ObserveOracle("fetch_prices", 20*time.Millisecond, nil)
	m.ObserveOracle("fetch_prices", 30*time.Millisecond, errors.New("boom"))
	m.AddLineItems(3)
	m.AddLineItems(2)
	m.AddLineItems(-1)
	m.SetActiveCarts(2)

	if got := testutil.ToFloat64(m.operations.WithLabelValues("add_to_cart", OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 successful adds, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("unknown", OutcomeFailure)); got != 1 {
		t.Fatalf("expected unknown label for empty operation, got %v", got)
	}
	if got := testutil.ToFloat64(m.oracleFailures.WithLabelValues("fetch_prices")); got != 1 {
		t.Fatalf("expected 1 oracle failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.lineItems); got != 4 {
		t.Fatalf("expected 4 line items, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeCarts); got != 2 {
		t.Fatalf("expected 2 active carts, got %v", got)
	}
}

func TestNilCartMetricsAreNoops(t *testing.T) {
	var m *CartMetrics
	m.IncOperation("x", OutcomeSuccess)
	m.ObserveOracle("x", time.Second, nil)
	m.AddLineItems(1)
	m.SetActiveCarts(1)

	empty := NewCartMetrics(nil)
	empty.IncOperation("x", OutcomeSuccess)
	empty.ObserveOracle("x", time.Second, errors.New("boom"))
	empty.AddLineItems(1)
	empty.SetActiveCarts(1)
}
