package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus metrics for the fetch pipeline.
type Metrics struct {
	RequestAttempts *prometheus.CounterVec // labels: provider
	Retries         *prometheus.CounterVec // labels: provider, reason=rate_limited|error
	RequestFailures *prometheus.CounterVec // labels: provider
	FallbacksTotal  prometheus.Counter
	UnmappedSymbols prometheus.Counter
	CacheHits       *prometheus.CounterVec // labels: endpoint
	CacheMisses     *prometheus.CounterVec // labels: endpoint
	RefreshDur      prometheus.Histogram
	QuotesReturned  prometheus.Counter
}

// NewMetrics builds and registers all metrics on the given registerer.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate
// registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_request_attempts_total",
			Help: "HTTP attempts issued by the gateway (including retries)",
		}, []string{"provider"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_request_retries_total",
			Help: "Gateway retries by reason",
		}, []string{"provider", "reason"}),
		RequestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_request_failures_total",
			Help: "Fetches that exhausted the attempt budget",
		}, []string{"provider"}),
		FallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_fallbacks_total",
			Help: "Times the secondary provider was used for a market-data call",
		}),
		UnmappedSymbols: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_unmapped_symbols_total",
			Help: "Symbols dropped because no provider identifier mapping exists",
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_cache_hits_total",
			Help: "Cache hits by endpoint kind",
		}, []string{"endpoint"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_cache_misses_total",
			Help: "Cache misses by endpoint kind",
		}, []string{"endpoint"}),
		RefreshDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_refresh_duration_seconds",
			Help:    "Scheduled watchlist refresh latency",
			Buckets: prometheus.DefBuckets,
		}),
		QuotesReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_quotes_returned_total",
			Help: "Normalized quote records returned to callers",
		}),
	}

	reg.MustRegister(
		m.RequestAttempts,
		m.Retries,
		m.RequestFailures,
		m.FallbacksTotal,
		m.UnmappedSymbols,
		m.CacheHits,
		m.CacheMisses,
		m.RefreshDur,
		m.QuotesReturned,
	)
	return m
}
