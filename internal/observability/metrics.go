package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the citation verification
// service. Metrics are organized by subsystem: verifications, provider
// lookups, cache, and deduplication. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// VerificationsStarted counts bibliography verification runs initiated.
	VerificationsStarted prometheus.Counter

	// VerificationsCompleted counts runs that finished successfully.
	VerificationsCompleted prometheus.Counter

	// VerificationsFailed counts runs that ended in failure.
	VerificationsFailed prometheus.Counter

	// VerificationDuration observes end-to-end run duration in seconds.
	VerificationDuration prometheus.Histogram

	// EntriesResolved counts resolved entries, labeled by outcome
	// ("match", "mismatch", "unable").
	EntriesResolved *prometheus.CounterVec

	// ResolutionConfidence observes the confidence of resolved entries.
	ResolutionConfidence prometheus.Histogram

	// LookupsStarted counts provider lookups started, labeled by provider.
	LookupsStarted *prometheus.CounterVec

	// LookupsCompleted counts successful lookups, labeled by provider.
	LookupsCompleted *prometheus.CounterVec

	// LookupsFailed counts failed lookups, labeled by provider.
	LookupsFailed *prometheus.CounterVec

	// LookupDuration observes lookup duration in seconds, labeled by provider.
	LookupDuration *prometheus.HistogramVec

	// ProviderRateLimited counts rate limit responses, labeled by provider.
	ProviderRateLimited *prometheus.CounterVec

	// CacheHits counts cache hits, labeled by provider namespace.
	CacheHits *prometheus.CounterVec

	// CacheMisses counts cache misses, labeled by provider namespace.
	CacheMisses *prometheus.CounterVec

	// DuplicateGroups tracks the duplicate groups found in the last run.
	DuplicateGroups prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		VerificationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_started_total",
			Help:      "Total number of bibliography verification runs started",
		}),
		VerificationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_completed_total",
			Help:      "Total number of verification runs completed successfully",
		}),
		VerificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_failed_total",
			Help:      "Total number of verification runs that failed",
		}),
		VerificationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Duration of verification runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),

		EntriesResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_resolved_total",
			Help:      "Total number of bibliography entries resolved by outcome",
		}, []string{"outcome"}),
		ResolutionConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_confidence",
			Help:      "Confidence scores of resolved entries",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),

		LookupsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_started_total",
			Help:      "Total number of provider lookups started",
		}, []string{"provider"}),
		LookupsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_completed_total",
			Help:      "Total number of provider lookups completed",
		}, []string{"provider"}),
		LookupsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_failed_total",
			Help:      "Total number of provider lookups that failed",
		}, []string{"provider"}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of provider lookups in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		ProviderRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_rate_limited_total",
			Help:      "Total number of rate limit responses from providers",
		}, []string{"provider"}),

		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		}, []string{"provider"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		}, []string{"provider"}),

		DuplicateGroups: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicate_groups",
			Help:      "Number of duplicate entry groups found in the last run",
		}),
	}
}

// RecordVerificationStarted records that a verification run has started.
func (m *Metrics) RecordVerificationStarted() {
	m.VerificationsStarted.Inc()
}

// RecordVerificationCompleted records a completed run.
func (m *Metrics) RecordVerificationCompleted(durationSeconds float64) {
	m.VerificationsCompleted.Inc()
	m.VerificationDuration.Observe(durationSeconds)
}

// RecordVerificationFailed records a failed run.
func (m *Metrics) RecordVerificationFailed(durationSeconds float64) {
	m.VerificationsFailed.Inc()
	m.VerificationDuration.Observe(durationSeconds)
}

// RecordEntryResolved records one resolved entry.
func (m *Metrics) RecordEntryResolved(outcome string, confidence float64) {
	m.EntriesResolved.WithLabelValues(outcome).Inc()
	m.ResolutionConfidence.Observe(confidence)
}

// RecordLookupStarted records a provider lookup start.
func (m *Metrics) RecordLookupStarted(provider string) {
	m.LookupsStarted.WithLabelValues(provider).Inc()
}

// RecordLookupCompleted records a successful provider lookup.
func (m *Metrics) RecordLookupCompleted(provider string, durationSeconds float64) {
	m.LookupsCompleted.WithLabelValues(provider).Inc()
	m.LookupDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordLookupFailed records a failed provider lookup.
func (m *Metrics) RecordLookupFailed(provider string, durationSeconds float64) {
	m.LookupsFailed.WithLabelValues(provider).Inc()
	m.LookupDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordRateLimited records a rate limit response from a provider.
func (m *Metrics) RecordRateLimited(provider string) {
	m.ProviderRateLimited.WithLabelValues(provider).Inc()
}

// RecordCacheHit records a response cache hit.
func (m *Metrics) RecordCacheHit(provider string) {
	m.CacheHits.WithLabelValues(provider).Inc()
}

// RecordCacheMiss records a response cache miss.
func (m *Metrics) RecordCacheMiss(provider string) {
	m.CacheMisses.WithLabelValues(provider).Inc()
}

// RecordDuplicateGroups records the duplicate group count for a run.
func (m *Metrics) RecordDuplicateGroups(count int) {
	m.DuplicateGroups.Set(float64(count))
}
