// Package metrics exposes Prometheus counters for container resolutions and
// dispatched requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several applications (or tests) can
// live in one process.
type Collector struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	requests    *prometheus.CounterVec
}

// New creates a Collector. Go runtime and process collectors are added when
// runtime is true.
func New(runtime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galanthus",
			Subsystem: "di",
			Name:      "resolutions_total",
			Help:      "Container resolutions by type and outcome.",
		}, []string{"type", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "galanthus",
			Subsystem: "di",
			Name:      "resolution_seconds",
			Help:      "Time spent resolving a type, dependencies included.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galanthus",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Dispatched requests by controller and status.",
		}, []string{"controller", "status"}),
	}
	c.registry.MustRegister(c.resolutions, c.durations, c.requests)
	if runtime {
		c.registry.MustRegister(prometheus.NewGoCollector())
		c.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}
	return c
}

// Observe records one resolution.
func (c *Collector) Observe(id string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.resolutions.WithLabelValues(id, outcome).Inc()
	c.durations.WithLabelValues(id).Observe(d.Seconds())
}

// ObserveRequest records one dispatched request.
func (c *Collector) ObserveRequest(controller string, status int) {
	c.requests.WithLabelValues(controller, strconv.Itoa(status)).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
