// Package metrics holds the gateway's Prometheus collectors. Every gateway
// owns a private registry so tests and embedded gateways never collide on
// the global default registerer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zendesk_mcp"

// Invocation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeUnknown = "unknown_tool"
)

// UnknownToolLabel is the tool label of every call to an unregistered name.
// Client supplied names never become label values.
const UnknownToolLabel = "unknown"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	invocations     *prometheus.CounterVec
	invocationTime  *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	remoteRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		invocationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_invocation_duration_seconds",
			Help:      "Wall time of tool invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"tool"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently registered in the session table.",
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions that completed the handshake.",
		}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zendesk_requests_total",
			Help:      "Outbound Zendesk API calls by method and status code (0 when no response arrived).",
		}, []string{"method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.invocations,
		m.invocationTime,
		m.sessionsActive,
		m.sessionsCreated,
		m.remoteRequests,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTool records one finished invocation
func (m *Metrics) ObserveTool(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if outcome == OutcomeUnknown {
		m.invocations.WithLabelValues(UnknownToolLabel, outcome).Inc()
		return
	}
	m.invocations.WithLabelValues(tool, outcome).Inc()
	m.invocationTime.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveRemote records one outbound call. It matches zendesk.RequestObserver.
func (m *Metrics) ObserveRemote(method string, status int) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// SessionOpened records a registered session
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
	m.sessionsActive.Inc()
}

// SessionClosed records a deregistered session
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
