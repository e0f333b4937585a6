// Package metrics exposes the Prometheus collectors for gateway calls and
// HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for gateway calls.
const (
	OutcomeOK            = "ok"
	OutcomeConfiguration = "configuration_error"
	OutcomeProvider      = "provider_error"
	OutcomeSchema        = "schema_error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
}

// New registers the collectors on a fresh registry, alongside the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "giftgenius",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Generation calls by operation, provider family and outcome.",
			},
			[]string{"operation", "provider", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "giftgenius",
				Subsystem: "gateway",
				Name:      "duration_seconds",
				Help:      "Wall time of generation calls.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"operation", "provider"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "giftgenius",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route pattern and status.",
			},
			[]string{"method", "route", "status"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "giftgenius",
				Subsystem: "session",
				Name:      "calls_in_flight",
				Help:      "Session generation or suggestion calls currently running.",
			},
		),
	}
	reg.MustRegister(
		m.gatewayRequests,
		m.gatewayDuration,
		m.httpRequests,
		m.sessionsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGateway records one gateway call.
func (m *Metrics) ObserveGateway(operation, provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(operation, provider, outcome).Inc()
	m.gatewayDuration.WithLabelValues(operation, provider).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// SessionCallStarted and SessionCallDone track in-flight session calls.
func (m *Metrics) SessionCallStarted() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionCallDone() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
