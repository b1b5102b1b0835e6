// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "graphdesk"

// Outcome label values for registry calls.
const (
	OutcomeSuccess       = "success"
	OutcomeRegistryError = "registry_error"
	OutcomeNotFound      = "not_found"
	OutcomeFailure       = "failure"
)

// Metrics holds the HTTP and schema registry collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	registryRequests *prometheus.CounterVec
	registryDuration *prometheus.HistogramVec
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "requests_total",
			Help:      "Total number of schema registry operations by outcome.",
		}, []string{"operation", "outcome"}),
		registryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "request_duration_seconds",
			Help:      "Schema registry round-trip latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "outcome"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.httpRequests, m.httpDuration, m.registryRequests, m.registryDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// ObserveHTTP records one served request. route is the matched mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveRegistry records one schema registry operation.
func (m *Metrics) ObserveRegistry(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.registryRequests.WithLabelValues(operation, outcome).Inc()
	m.registryDuration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}
