package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestScoringMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewScoringMetrics(reg)
	version := "v2"
	metrics.ObserveDuration(version, 120*time.Millisecond)
	metrics.IncSuccess(version)
	metrics.IncFailure("no_active_scorecard")
	metrics.IncCacheHit()
	metrics.IncCacheMiss()
	metrics.IncCacheMiss()
	metrics.IncExtractorFailure("TRANSACTIONS")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "score_success", "scorecard_version", version); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "score_failure", "reason", "no_active_scorecard"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "extractor_failure", "source", "TRANSACTIONS"); err != nil {
		t.Fatalf("fetch extractor failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected extractor failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "score_duration_seconds", "scorecard_version", version); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got := fetchPlainCounter(mfs, "feature_cache_misses"); got != 2 {
		t.Fatalf("expected 2 cache misses, got %f", got)
	}
	if got := fetchPlainCounter(mfs, "feature_cache_hits"); got != 1 {
		t.Fatalf("expected 1 cache hit, got %f", got)
	}
}

func TestNilRegistererIsNoOp(t *testing.T) {
	metrics := NewScoringMetrics(nil)
	metrics.ObserveDuration("v1", time.Second)
	metrics.IncSuccess("v1")
	metrics.IncFailure("x")
	metrics.IncCacheHit()
	metrics.IncCacheMiss()
	metrics.IncExtractorFailure("KYC")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return -1
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
