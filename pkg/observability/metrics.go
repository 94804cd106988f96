package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the request pipeline
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Shield metrics
	ShieldVerdictsTotal *prometheus.CounterVec
	ShieldStoreErrors   *prometheus.CounterVec

	// Authentication metrics
	LoginAttemptsTotal prometheus.Counter
	LoginFailuresTotal prometheus.Counter
	LoginLockoutsTotal prometheus.Counter

	// Tenant metrics
	ImpersonationsTotal    prometheus.Counter
	UnresolvedTenantsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simplycrm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simplycrm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ShieldVerdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simplycrm_shield_verdicts_total",
				Help: "Shield verdicts by outcome (allowed, blocked, duplicate)",
			},
			[]string{"verdict"},
		),
		ShieldStoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simplycrm_shield_store_errors_total",
				Help: "Key-value store errors observed by the shield, by operation",
			},
			[]string{"operation"},
		),
		LoginAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplycrm_login_attempts_total",
			Help: "Total login attempts",
		}),
		LoginFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplycrm_login_failures_total",
			Help: "Failed login attempts",
		}),
		LoginLockoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplycrm_login_lockouts_total",
			Help: "Login lockouts triggered",
		}),
		ImpersonationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplycrm_impersonations_total",
			Help: "Requests resolved to an impersonated organization",
		}),
		UnresolvedTenantsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplycrm_unresolved_tenants_total",
			Help: "Authenticated requests with no resolvable organization",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ShieldVerdictsTotal,
		m.ShieldStoreErrors,
		m.LoginAttemptsTotal,
		m.LoginFailuresTotal,
		m.LoginLockoutsTotal,
		m.ImpersonationsTotal,
		m.UnresolvedTenantsTotal,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
