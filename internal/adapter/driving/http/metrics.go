package httphandler

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process's Prometheus collectors on a private registry so
// tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec

	CredentialsIssued  prometheus.Counter
	ProofsVerified     prometheus.Counter
	AttemptsBlocked    prometheus.Counter
	VaultAccessGranted prometheus.Counter
	VaultAccessDenied  prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zkcred",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zkcred",
			Name:      "credentials_issued_total",
			Help:      "Credentials issued, including simulated-mode issuances.",
		}),
		ProofsVerified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zkcred",
			Name:      "proofs_verified_total",
			Help:      "Authorization proofs that verified successfully.",
		}),
		AttemptsBlocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zkcred",
			Name:      "attempts_blocked_total",
			Help:      "Authorization attempts that failed verification.",
		}),
		VaultAccessGranted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zkcred",
			Name:      "vault_access_granted_total",
			Help:      "Vault access requests that ran their action.",
		}),
		VaultAccessDenied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "zkcred",
			Name:      "vault_access_denied_total",
			Help:      "Vault access requests rejected by the gate.",
		}),
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method, route string, status int, seconds float64) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
