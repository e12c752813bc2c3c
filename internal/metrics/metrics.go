// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"webpage-chatter/internal/models"
)

// Metrics groups the collectors for HTTP traffic, routing and upstream calls.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	modelSelections  *prometheus.CounterVec
	upstreamAttempts *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
	streamFragments  prometheus.Counter
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		modelSelections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_selections_total",
				Help: "Requests routed to each model.",
			},
			[]string{"model", "fallback"},
		),
		upstreamAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_attempts_total",
				Help: "Calls made to the generation API, by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		upstreamFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_failures_total",
				Help: "Terminal upstream failures by classified category.",
			},
			[]string{"mode", "category"},
		),
		streamFragments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stream_fragments_total",
				Help: "Text fragments relayed to streaming clients.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.modelSelections,
		m.upstreamAttempts,
		m.upstreamFailures,
		m.streamFragments,
	)
	return m
}

// Registry returns the registry to expose over HTTP.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveModelChoice records a routing decision.
func (m *Metrics) ObserveModelChoice(choice models.ModelChoice) {
	m.modelSelections.WithLabelValues(choice.ID, strconv.FormatBool(choice.Fallback)).Inc()
}

// ObserveAttempt records one upstream call attempt. err == nil means success.
func (m *Metrics) ObserveAttempt(mode string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.upstreamAttempts.WithLabelValues(mode, outcome).Inc()
}

// ObserveFailure records a terminal, classified upstream failure.
func (m *Metrics) ObserveFailure(mode, category string) {
	m.upstreamFailures.WithLabelValues(mode, category).Inc()
}

// ObserveFragment records a relayed stream fragment.
func (m *Metrics) ObserveFragment() {
	m.streamFragments.Inc()
}
