// Package metrics holds the Prometheus counters for a viewer process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pdbview"

// Load outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Collector owns a private registry, so several collectors can coexist in
// one process (tests, multiple servers). A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	Loads           *prometheus.CounterVec
	Reconciliations *prometheus.CounterVec
	StyleCalls      prometheus.Counter
	StaleLoads      prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates a Collector with every metric registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Structure loads by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		Reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliations_total",
				Help:      "Style reconciliation passes by kind",
			},
			[]string{"kind"},
		),
		StyleCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "style_calls_total",
				Help:      "SetStyle calls issued to the engine",
			},
		),
		StaleLoads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_loads_total",
				Help:      "Completed loads discarded because a newer load was started",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	c.registry.MustRegister(
		c.Loads,
		c.Reconciliations,
		c.StyleCalls,
		c.StaleLoads,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordLoad counts a finished load.
func (c *Collector) RecordLoad(source, outcome string) {
	if c == nil {
		return
	}
	c.Loads.WithLabelValues(source, outcome).Inc()
	if outcome == OutcomeStale {
		c.StaleLoads.Inc()
	}
}

// RecordReconcile counts a reconciliation pass of the given kind and the
// style calls it issued.
func (c *Collector) RecordReconcile(kind string, calls int) {
	if c == nil {
		return
	}
	c.Reconciliations.WithLabelValues(kind).Inc()
	c.StyleCalls.Add(float64(calls))
}

// RecordHTTP counts a served request.
func (c *Collector) RecordHTTP(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
