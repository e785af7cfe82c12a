// Package svcmetrics declares the process's prometheus collectors and
// exposes the handler that serves them, per SPEC_FULL.md's metrics
// section (ambient, not required by spec.md itself but carried the
// same way every corpus service exposes a /metrics endpoint).
package svcmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every counter/histogram the service records.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CoordinatorOutcome *prometheus.CounterVec
	BackendErrors      *prometheus.CounterVec
	ExtractDuration    *prometheus.HistogramVec
}

// New registers every collector against reg and returns the handle
// used to record observations. Pass prometheus.NewRegistry() in tests
// to avoid colliding with the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedsvc",
			Name:      "requests_total",
			Help:      "HTTP requests served, by status class.",
		}, []string{"status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embedsvc",
			Name:      "request_duration_seconds",
			Help:      "End-to-end handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		CoordinatorOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedsvc",
			Name:      "coordinator_outcome_total",
			Help:      "Singleflight coordinator Get outcomes (hit/pending/miss/errored).",
		}, []string{"outcome"}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedsvc",
			Name:      "cache_backend_errors_total",
			Help:      "Cache backend operation failures, by backend and op.",
		}, []string{"backend", "op"}),
		ExtractDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embedsvc",
			Name:      "extract_duration_seconds",
			Help:      "Extractor Extract() latency, by extractor name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"extractor"}),
	}
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
