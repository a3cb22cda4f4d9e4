// Package metrics holds the Prometheus collectors for the API and the
// resolution pipeline.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civicledger/backend/internal/models"
)

const namespace = "civicledger"

// Metrics holds Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	Resolutions    *prometheus.CounterVec
	FraudFlags     *prometheus.CounterVec
	VisionFailures prometheus.Counter
	Transitions    *prometheus.CounterVec
}

// New creates a metrics set on its own registry, so tests can build as many
// as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Resolution attempts by outcome",
			},
			[]string{"outcome"}, // resolved, fraud, rejected
		),
		FraudFlags: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fraud_flags_total",
				Help:      "Fraud verdicts by the rule that fired",
			},
			[]string{"rule"},
		),
		VisionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vision_failures_total",
				Help:      "Vision scorer calls that produced no usable score",
			},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Committed grievance status transitions",
			},
			[]string{"from", "to"},
		),
	}
}

// Registry exposes the underlying registry (for tests and custom exporters).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count, latency and in-flight requests.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ObserveTransition is a nil-safe helper for components that may run without metrics.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// OnTransition counts committed grievance transitions.
func (m *Metrics) OnTransition(_ context.Context, ev models.StatusEvent) {
	m.ObserveTransition(string(ev.From), string(ev.To))
}

// ObserveResolution records the outcome of one attempt and, for fraud, the rule.
func (m *Metrics) ObserveResolution(outcome, rule string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
	if rule != "" {
		m.FraudFlags.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) ObserveVisionFailure() {
	if m == nil {
		return
	}
	m.VisionFailures.Inc()
}
