package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScoringMetrics records pipeline health for score computations.
type ScoringMetrics struct {
	duration         *prometheus.HistogramVec
	success          *prometheus.CounterVec
	failure          *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	extractorFailure *prometheus.CounterVec
}

// NewScoringMetrics registers the scoring pipeline metrics on the provided
// registerer.
func NewScoringMetrics(reg prometheus.Registerer) *ScoringMetrics {
	if reg == nil {
		return &ScoringMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "score_duration_seconds",
		Help:    "Duration of score computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scorecard_version"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "score_success",
		Help: "Successful score computations.",
	}, []string{"scorecard_version"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "score_failure",
		Help: "Failed score computations.",
	}, []string{"reason"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feature_cache_hits",
		Help: "Feature vector cache hits.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feature_cache_misses",
		Help: "Feature vector cache misses.",
	})
	extractorFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_failure",
		Help: "Feature extractor failures by source.",
	}, []string{"source"})
	reg.MustRegister(duration, success, failure, cacheHits, cacheMisses, extractorFailure)
	return &ScoringMetrics{
		duration:         duration,
		success:          success,
		failure:          failure,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		extractorFailure: extractorFailure,
	}
}

// ObserveDuration records the elapsed time for a score computation.
func (s *ScoringMetrics) ObserveDuration(version string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(version)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for a scorecard version.
func (s *ScoringMetrics) IncSuccess(version string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(version)).Inc()
}

// IncFailure increments the failure counter with a reason label.
func (s *ScoringMetrics) IncFailure(reason string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCacheHit counts a feature cache hit.
func (s *ScoringMetrics) IncCacheHit() {
	if s == nil || s.cacheHits == nil {
		return
	}
	s.cacheHits.Inc()
}

// IncCacheMiss counts a feature cache miss.
func (s *ScoringMetrics) IncCacheMiss() {
	if s == nil || s.cacheMisses == nil {
		return
	}
	s.cacheMisses.Inc()
}

// IncExtractorFailure counts an extractor failure by source type.
func (s *ScoringMetrics) IncExtractorFailure(source string) {
	if s == nil || s.extractorFailure == nil {
		return
	}
	s.extractorFailure.WithLabelValues(normalizeLabel(source)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
