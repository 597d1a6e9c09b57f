package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)

	metrics.ObserveDuration(150 * time.Millisecond)
	metrics.IncQuotesCreated("checkout")
	metrics.IncQuotesCreated("checkout")
	metrics.IncPartitionsSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "quotes_created_total", "origin", "checkout"); err != nil {
		t.Fatalf("fetch quotes created: %v", err)
	} else if got != 2 {
		t.Fatalf("expected quotes_created_total=2, got %f", got)
	}

	skipped := findMetricFamily(mfs, "checkout_partitions_skipped_total")
	if skipped == nil {
		t.Fatal("skipped counter not found")
	}
	if got := skipped.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	duration := findMetricFamily(mfs, "checkout_duration_seconds")
	if duration == nil {
		t.Fatal("duration histogram not found")
	}
	if got := duration.GetMetric()[0].GetHistogram().GetSampleSum(); got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCheckoutMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *CheckoutMetrics
	metrics.ObserveDuration(time.Second)
	metrics.IncQuotesCreated("checkout")
	metrics.IncPartitionsSkipped()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
