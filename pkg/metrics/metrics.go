// Package metrics defines the Prometheus collectors exported by the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subscription_finder"

// Metrics groups every collector the service records.
type Metrics struct {
	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
	ExtractionAttempts    *prometheus.CounterVec
	ClassificationResults *prometheus.CounterVec
	ClassificationLatency prometheus.Histogram
	SubscriptionsIngested prometheus.Counter
	TempFilesSwept        prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ExtractionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_extraction_attempts_total",
			Help:      "PDF text extraction attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		ClassificationResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_results_total",
			Help:      "Statement classifications by outcome.",
		}, []string{"outcome"}),
		ClassificationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Latency of the generative model call.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		SubscriptionsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_ingested_total",
			Help:      "Subscriptions created from uploaded statements.",
		}),
		TempFilesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "temp_files_swept_total",
			Help:      "Orphaned upload files removed by the janitor.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ExtractionAttempts,
		m.ClassificationResults,
		m.ClassificationLatency,
		m.SubscriptionsIngested,
		m.TempFilesSwept,
	)
	return m
}

// NewNoop returns collectors bound to a private registry, for tests and for
// running with metrics disabled.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
