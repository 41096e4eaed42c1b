// Package metrics exposes Prometheus collectors for the HTTP layer and the
// video ingestion pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters, gauges and histograms for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal prometheus.Counter
	errorsTotal   prometheus.Counter
	uploadsTotal  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	orientations  *prometheus.CounterVec
	stagedFiles   prometheus.Gauge
	cleanupErrors prometheus.Counter
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubely_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubely_http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	uploadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tubely_uploads_total",
		Help: "Upload pipeline runs by asset kind and outcome",
	}, []string{"asset", "outcome"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tubely_pipeline_stage_duration_seconds",
		Help:    "Time spent in each video pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.005, 4, 10),
	}, []string{"stage"})
	orientations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tubely_video_orientation_total",
		Help: "Stored videos by orientation class",
	}, []string{"orientation"})
	stagedFiles := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tubely_staged_files",
		Help: "Number of staged files currently on local disk",
	})
	cleanupErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tubely_staging_cleanup_errors_total",
		Help: "Staged files that could not be removed",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		uploadsTotal,
		stageDuration,
		orientations,
		stagedFiles,
		cleanupErrors,
	)

	return &Metrics{
		registry:      registry,
		requestsTotal: requestsTotal,
		errorsTotal:   errorsTotal,
		uploadsTotal:  uploadsTotal,
		stageDuration: stageDuration,
		orientations:  orientations,
		stagedFiles:   stagedFiles,
		cleanupErrors: cleanupErrors,
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// ObserveUpload counts a finished upload of asset ("video", "thumbnail")
// with the given outcome ("success" or an error kind).
func (m *Metrics) ObserveUpload(asset, outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(asset, outcome).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncOrientation counts a stored video of the given orientation.
func (m *Metrics) IncOrientation(orientation string) {
	if m == nil {
		return
	}
	m.orientations.WithLabelValues(orientation).Inc()
}

// StagedFileCreated increments the staged files gauge.
func (m *Metrics) StagedFileCreated() {
	if m == nil {
		return
	}
	m.stagedFiles.Inc()
}

// StagedFileReleased decrements the staged files gauge.
func (m *Metrics) StagedFileReleased() {
	if m == nil {
		return
	}
	m.stagedFiles.Dec()
}

// IncCleanupErrors counts a staged file that could not be removed.
func (m *Metrics) IncCleanupErrors() {
	if m == nil {
		return
	}
	m.cleanupErrors.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
