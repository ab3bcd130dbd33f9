package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
)

// CartMetrics records cart engine activity and pricing oracle latency.
type CartMetrics struct {
	operations     *prometheus.CounterVec
	oracleDuration *prometheus.HistogramVec
	oracleFailures *prometheus.CounterVec
	lineItems      prometheus.Gauge
	activeCarts    prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart engine operations by name and outcome.",
	}, []string{"operation", "outcome"})
	oracleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_oracle_duration_seconds",
		Help:    "Latency of pricing oracle lookups in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"call"})
	oracleFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_oracle_failures_total",
		Help: "Failed pricing oracle lookups.",
	}, []string{"call"})
	lineItems := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_line_items",
		Help: "Line items held across the carts loaded in memory.",
	})
	activeCarts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_active_carts",
		Help: "Customer carts loaded in memory.",
	})
	reg.MustRegister(operations, oracleDuration, oracleFailures, lineItems, activeCarts)
	return &CartMetrics{
		operations:     operations,
		oracleDuration: oracleDuration,
		oracleFailures: oracleFailures,
		lineItems:      lineItems,
		activeCarts:    activeCarts,
	}
}

// IncOperation counts one engine operation with its outcome.
func (c *CartMetrics) IncOperation(operation, outcome string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveOracle records the duration of a pricing call and counts failures.
func (c *CartMetrics) ObserveOracle(call string, duration time.Duration, err error) {
	if c == nil || c.oracleDuration == nil {
		return
	}
	label := normalizeLabel(call)
	c.oracleDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil && c.oracleFailures != nil {
		c.oracleFailures.WithLabelValues(label).Inc()
	}
}

// AddLineItems moves the line-item gauge by delta. Each cart reports the
// change in its own line count.
func (c *CartMetrics) AddLineItems(delta int) {
	if c == nil || c.lineItems == nil || delta == 0 {
		return
	}
	c.lineItems.Add(float64(delta))
}

// SetActiveCarts publishes how many customer carts are loaded.
func (c *CartMetrics) SetActiveCarts(count int) {
	if c == nil || c.activeCarts == nil {
		return
	}
	c.activeCarts.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
