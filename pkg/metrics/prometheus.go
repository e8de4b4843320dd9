// Package metrics provides Prometheus metrics for the capture service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	draftsRecovered prometheus.Counter
	draftsDiscarded prometheus.Counter
	autosaveWrites  prometheus.Counter
	autosaveErrors  prometheus.Counter
	autosaveLatency prometheus.Histogram
	landmarksPlaced prometheus.Counter
	measureLatency  prometheus.Histogram
	stepTransitions *prometheus.CounterVec

	// Submission pipeline
	uploadsInFlight   prometheus.Gauge
	uploadErrors      prometheus.Counter
	submissions       *prometheus.CounterVec
	submissionLatency prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager on a custom registry to avoid default Go collectors.
var globalManager *Manager                    //nolint:gochecknoglobals // singleton metrics manager
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kinesia",
		subsystem:        "capture",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions_active",
		Help: "Capture sessions currently open",
	})
	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions_created_total",
		Help: "Capture sessions created",
	})
	m.draftsRecovered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "drafts_recovered_total",
		Help: "Sessions rehydrated from a stored draft",
	})
	m.draftsDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "drafts_discarded_total",
		Help: "Malformed drafts discarded on load",
	})
	m.autosaveWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "autosave_writes_total",
		Help: "Debounced draft writes performed",
	})
	m.autosaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "autosave_errors_total",
		Help: "Draft writes that failed",
	})
	m.autosaveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "autosave_latency_milliseconds",
		Help:    "Draft write latency",
		Buckets: m.histogramBuckets,
	})
	m.landmarksPlaced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "landmarks_placed_total",
		Help: "Landmark placements and drags applied",
	})
	m.measureLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "measurement_compute_milliseconds",
		Help:    "Measurement derivation latency",
		Buckets: m.histogramBuckets,
	})
	m.stepTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "step_transitions_total",
		Help: "Wizard step transitions by direction",
	}, []string{"direction"})

	m.uploadsInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "uploads_in_flight",
		Help: "Media uploads currently running",
	})
	m.uploadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "upload_errors_total",
		Help: "Individual media uploads that failed",
	})
	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "submissions_total",
		Help: "Submission attempts by outcome",
	}, []string{"outcome"})
	m.submissionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "submission_latency_milliseconds",
		Help:    "End-to-end submission latency",
		Buckets: m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Session lifecycle helpers.

// UpdateSessionsActive sets the open session gauge.
func UpdateSessionsActive(n int) { globalManager.sessionsActive.Set(float64(n)) }

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() { globalManager.sessionsCreated.Inc() }

// RecordDraftRecovered increments the rehydrated drafts counter.
func RecordDraftRecovered() { globalManager.draftsRecovered.Inc() }

// RecordDraftDiscarded increments the malformed drafts counter.
func RecordDraftDiscarded() { globalManager.draftsDiscarded.Inc() }

// RecordAutosave records one draft write and its latency.
func RecordAutosave(latencyMs float64) {
	globalManager.autosaveWrites.Inc()
	globalManager.autosaveLatency.Observe(latencyMs)
}

// RecordAutosaveError increments the failed autosave counter.
func RecordAutosaveError() { globalManager.autosaveErrors.Inc() }

// RecordLandmarkPlaced increments the landmark placement counter.
func RecordLandmarkPlaced() { globalManager.landmarksPlaced.Inc() }

// RecordMeasureLatency records measurement derivation latency.
func RecordMeasureLatency(latencyMs float64) { globalManager.measureLatency.Observe(latencyMs) }

// RecordStepTransition counts a wizard transition ("next" or "back").
func RecordStepTransition(direction string) {
	globalManager.stepTransitions.WithLabelValues(direction).Inc()
}

// Submission pipeline helpers.

// UploadStarted bumps the in-flight upload gauge.
func UploadStarted() { globalManager.uploadsInFlight.Inc() }

// UploadFinished drops the in-flight upload gauge.
func UploadFinished() { globalManager.uploadsInFlight.Dec() }

// RecordUploadError increments the failed upload counter.
func RecordUploadError() { globalManager.uploadErrors.Inc() }

// RecordSubmission counts a submission attempt ("success" or "failed").
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordSubmissionLatency records end-to-end submission latency.
func RecordSubmissionLatency(latencyMs float64) {
	globalManager.submissionLatency.Observe(latencyMs)
}

// HTTP helpers.

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
