package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus instruments for the authorization and
// relationship cores.
type Metrics struct {
	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec // token, decision
	AuthzResolverCalls  *prometheus.CounterVec // resolver, source (cache|store)

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec // family
	CacheMissesTotal        *prometheus.CounterVec // family
	CacheInvalidationsTotal *prometheus.CounterVec // scope (identity|profile|club|all)

	// Relationship state machine metrics
	ConnectionTransitionsTotal *prometheus.CounterVec // to_state
	MatchTransitionsTotal      *prometheus.CounterVec // to_state

	// Expiration sweep metrics
	SweepRunsTotal    prometheus.Counter
	SweepExpiredTotal prometheus.Counter
	SweepDurationSecs prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"token", "decision"},
		),
		AuthzResolverCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_authz_resolver_calls_total",
				Help: "Ownership resolver invocations by data source",
			},
			[]string{"resolver", "source"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"family"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"family"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_cache_invalidations_total",
				Help: "Cache invalidation calls by scope",
			},
			[]string{"scope"},
		),
		ConnectionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_connection_transitions_total",
				Help: "Connection request state transitions",
			},
			[]string{"to_state"},
		),
		MatchTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringside_match_transitions_total",
				Help: "Match request state transitions",
			},
			[]string{"to_state"},
		),
		SweepRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ringside_sweep_runs_total",
				Help: "Total number of expiration sweep runs",
			},
		),
		SweepExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ringside_sweep_expired_total",
				Help: "Total number of match requests expired by the sweeper",
			},
		),
		SweepDurationSecs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ringside_sweep_duration_seconds",
				Help:    "Expiration sweep duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.AuthzDecisionsTotal,
		m.AuthzResolverCalls,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.ConnectionTransitionsTotal,
		m.MatchTransitionsTotal,
		m.SweepRunsTotal,
		m.SweepExpiredTotal,
		m.SweepDurationSecs,
	)

	return m
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
