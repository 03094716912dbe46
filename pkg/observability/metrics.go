package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization decisions, labeled by resource, action and outcome.
	AuthzDecisionsTotal  *prometheus.CounterVec
	AuthzDecisionLatency *prometheus.HistogramVec

	EdgeCacheHitsTotal   prometheus.Counter
	EdgeCacheMissesTotal prometheus.Counter

	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all metrics on the given registry. A nil
// registry falls back to the default one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commander_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commander_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commander_authz_decisions_total",
				Help: "Authorization decisions by resource, action and outcome",
			},
			[]string{"resource", "action", "decision"},
		),
		AuthzDecisionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commander_authz_decision_duration_seconds",
				Help:    "Time spent evaluating authorization decisions",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"resource", "action"},
		),
		EdgeCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commander_edge_cache_hits_total",
			Help: "Relationship edge cache hits",
		}),
		EdgeCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commander_edge_cache_misses_total",
			Help: "Relationship edge cache misses",
		}),
		DBConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "commander_db_connections_active",
			Help: "Open database connections",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "commander_db_connections_idle",
			Help: "Idle database connections",
		}),
	}

	reg := prometheus.Registerer(prometheus.DefaultRegisterer)
	if registry != nil {
		reg = registry
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.AuthzDecisionLatency,
		m.EdgeCacheHitsTotal,
		m.EdgeCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDecision records one authorization decision.
func (m *Metrics) ObserveDecision(resource, action, decision string, duration time.Duration) {
	m.AuthzDecisionsTotal.WithLabelValues(resource, action, decision).Inc()
	m.AuthzDecisionLatency.WithLabelValues(resource, action).Observe(duration.Seconds())
}

// Handler returns the scrape endpoint for the registry (nil means default).
func Handler(registry *prometheus.Registry) http.Handler {
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
