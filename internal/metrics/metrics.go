// Package metrics exposes the service's Prometheus collectors. All methods
// are safe on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dubber"

// Metrics holds the counters for job lifecycle, publishing and HTTP traffic.
type Metrics struct {
	registry *prometheus.Registry

	JobsCreated        prometheus.Counter
	JobTransitions     *prometheus.CounterVec
	UpdatesRejected    *prometheus.CounterVec
	UpdatesIgnored     prometheus.Counter
	PublishFailures    prometheus.Counter
	UploadBytes        prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		JobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Jobs durably recorded.",
		}),
		JobTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_transitions_total",
			Help:      "Job status transitions.",
		}, []string{"from", "to"}),
		UpdatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_updates_rejected_total",
			Help:      "Status updates rejected, by error kind.",
		}, []string{"kind"}),
		UpdatesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_updates_ignored_total",
			Help:      "Stale progress reports dropped without error.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Job notifications that could not be handed to the broker.",
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_bytes_total",
			Help:      "Bytes accepted through the upload endpoint.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.JobsCreated,
		m.JobTransitions,
		m.UpdatesRejected,
		m.UpdatesIgnored,
		m.PublishFailures,
		m.UploadBytes,
		m.HTTPRequests,
		m.HTTPRequestSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) JobCreated() {
	if m != nil {
		m.JobsCreated.Inc()
	}
}

func (m *Metrics) Transition(from, to string) {
	if m != nil {
		m.JobTransitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) UpdateRejected(kind string) {
	if m != nil {
		m.UpdatesRejected.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) UpdateIgnored() {
	if m != nil {
		m.UpdatesIgnored.Inc()
	}
}

func (m *Metrics) PublishFailed() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}

func (m *Metrics) Uploaded(bytes int64) {
	if m != nil && bytes > 0 {
		m.UploadBytes.Add(float64(bytes))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, route).Observe(seconds)
}
