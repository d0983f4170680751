package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeAllowed = "allowed"
	OutcomeDropped = "dropped"
	OutcomeForced  = "forced"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	renderPasses        *prometheus.CounterVec
	renderPassDuration  prometheus.Histogram
	projectionAborts    prometheus.Counter
	markersSkipped      prometheus.Counter
	activeSessions      prometheus.Gauge
	feedBatches         prometheus.Counter
}

// New creates a fresh Metrics registry with HTTP and render metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telemetry_map",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by core-go",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "telemetry_map",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by core-go",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	renderPasses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telemetry_map",
		Name:      "render_passes_total",
		Help:      "Render pass decisions by outcome (allowed, dropped by the throttle, forced by an interaction)",
	}, []string{"outcome"})

	renderPassDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "telemetry_map",
		Name:      "render_pass_duration_seconds",
		Help:      "Time spent projecting markers and building table rows for one pass",
		Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	projectionAborts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "telemetry_map",
		Name:      "projection_aborts_total",
		Help:      "Render passes whose marker projection was aborted for lack of container geometry",
	})

	markersSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "telemetry_map",
		Name:      "markers_skipped_total",
		Help:      "Nodes left off the map because their location is unknown",
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "telemetry_map",
		Name:      "active_sessions",
		Help:      "Dashboard sessions currently mounted",
	})

	feedBatches := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "telemetry_map",
		Name:      "feed_batches_total",
		Help:      "Node update batches applied to the state container",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		renderPasses,
		renderPassDuration,
		projectionAborts,
		markersSkipped,
		activeSessions,
		feedBatches,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		renderPasses:        renderPasses,
		renderPassDuration:  renderPassDuration,
		projectionAborts:    projectionAborts,
		markersSkipped:      markersSkipped,
		activeSessions:      activeSessions,
		feedBatches:         feedBatches,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveRenderDecision counts one throttle decision.
func (m *Metrics) ObserveRenderDecision(outcome string) {
	if m == nil {
		return
	}
	m.renderPasses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRenderPassDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.renderPassDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncProjectionAbort() {
	if m == nil {
		return
	}
	m.projectionAborts.Inc()
}

func (m *Metrics) AddMarkersSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.markersSkipped.Add(float64(n))
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) IncFeedBatch() {
	if m == nil {
		return
	}
	m.feedBatches.Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
