package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records quote creation outcomes.
type CheckoutMetrics struct {
	duration      prometheus.Histogram
	quotesCreated *prometheus.CounterVec
	skipped       prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided
// registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of cart checkout runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	quotesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_created_total",
		Help: "Quotes created, by origin.",
	}, []string{"origin"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_partitions_skipped_total",
		Help: "Cart partitions skipped for lack of an active salesperson.",
	})
	reg.MustRegister(duration, quotesCreated, skipped)
	return &CheckoutMetrics{
		duration:      duration,
		quotesCreated: quotesCreated,
		skipped:       skipped,
	}
}

// ObserveDuration records the wall time of one checkout run.
func (c *CheckoutMetrics) ObserveDuration(duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.Observe(duration.Seconds())
}

// IncQuotesCreated increments the created counter for the given origin.
func (c *CheckoutMetrics) IncQuotesCreated(origin string) {
	if c == nil || c.quotesCreated == nil {
		return
	}
	if origin == "" {
		origin = "unknown"
	}
	c.quotesCreated.WithLabelValues(origin).Inc()
}

// IncPartitionsSkipped increments the skipped-partition counter.
func (c *CheckoutMetrics) IncPartitionsSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}
