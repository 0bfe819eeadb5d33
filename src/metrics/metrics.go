// Package metrics defines the Prometheus collectors for the admin session service.
// A nil *Metrics is valid and records nothing, which keeps unit tests free of registries.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

// Login results
const (
	LoginSuccess     = "success"
	LoginInvalid     = "invalid_credentials"
	LoginDeactivated = "deactivated"
	LoginMissing     = "missing_credentials"
	LoginRateLimited = "rate_limited"
	LoginError       = "error"
)

// Session check results
const (
	CheckValid       = "valid"
	CheckNoToken     = "no_token"
	CheckInvalid     = "invalid_token"
	CheckSuperseded  = "superseded"
	CheckUserMissing = "user_missing"
	CheckUnavailable = "unavailable"
)

// Metrics holds every collector the service exports
type Metrics struct {
	registry *prometheus.Registry

	logins              *prometheus.CounterVec
	sessionChecks       *prometheus.CounterVec
	sessionsInvalidated *prometheus.CounterVec
	tokenFailures       *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers the service collectors plus Go and process collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Admin login attempts by result",
		}, []string{"result"}),

		sessionChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_checks_total",
			Help:      "Session status checks by result",
		}, []string{"result"}),

		sessionsInvalidated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "sessions_invalidated_total",
			Help:      "Server-side session ids cleared, by cause",
		}, []string{"cause"}),

		tokenFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_failures_total",
			Help:      "Session tokens rejected by the codec, by kind",
		}, []string{"kind"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Login counts an attempt with the given result
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// SessionCheck counts one session status decision
func (m *Metrics) SessionCheck(result string) {
	if m == nil {
		return
	}
	m.sessionChecks.WithLabelValues(result).Inc()
}

// SessionsInvalidated adds n cleared sessions for cause
func (m *Metrics) SessionsInvalidated(cause string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsInvalidated.WithLabelValues(cause).Add(float64(n))
}

// TokenFailure counts a token rejected by the codec
func (m *Metrics) TokenFailure(kind string) {
	if m == nil {
		return
	}
	m.tokenFailures.WithLabelValues(kind).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
