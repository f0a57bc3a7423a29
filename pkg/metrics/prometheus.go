// Package metrics provides Prometheus metrics for the gwrank service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcomes used as label values.
const (
	OutcomeSuccess   = "success"
	OutcomeBadFormat = "bad_format"
	OutcomeSnapshot  = "snapshot_failed"
	OutcomeStorage   = "storage_failed"
)

// Manager manages all Prometheus metrics for the gwrank service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Query metrics
	searchRequests  prometheus.Counter
	searchLatency   prometheus.Histogram
	searchResults   prometheus.Histogram
	searchCacheHits prometheus.Counter
	searchCacheMiss prometheus.Counter
	queryRequests   *prometheus.CounterVec
	invariantErrors prometheus.Counter

	// Ingestion metrics
	ingestBatches  *prometheus.CounterVec
	ingestRows     prometheus.Counter
	ingestLatency  prometheus.Histogram
	lastIngestUnix prometheus.Gauge

	// Snapshot metrics
	snapshotCount        prometheus.Counter
	snapshotFailures     prometheus.Counter
	snapshotDuration     prometheus.Histogram
	snapshotLastUnix     prometheus.Gauge
	snapshotLastDuration prometheus.Gauge

	// Storage metrics
	storageQueryLatency *prometheus.HistogramVec
	storageErrors       *prometheus.CounterVec

	// Dataset gauges
	datasetRows         prometheus.Gauge
	datasetLatestEvent  prometheus.Gauge
	datasetFirstEvent   prometheus.Gauge
	datasetParticipants prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gwrank",
		subsystem:        "rankings",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	latency := m.histogramBuckets
	sizes := []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500}

	m.searchRequests = m.counter("search_requests_total", "Total number of name searches")
	m.searchLatency = m.histogram("search_latency_milliseconds", "Search pipeline latency in milliseconds", latency)
	m.searchResults = m.histogram("search_result_groups", "Number of guild groups returned per search", sizes)
	m.searchCacheHits = m.counter("search_cache_hits_total", "Searches answered from the result cache")
	m.searchCacheMiss = m.counter("search_cache_misses_total", "Searches that went to storage")
	m.queryRequests = m.counterVec("query_requests_total", "Read operations by kind", "operation")
	m.invariantErrors = m.counter("invariant_errors_total", "Internal invariant violations (programming defects)")

	m.ingestBatches = m.counterVec("ingest_batches_total", "Ingestion batches by outcome", "outcome")
	m.ingestRows = m.counter("ingest_rows_total", "Rows made durable by ingestion")
	m.ingestLatency = m.histogram("ingest_latency_milliseconds", "Ingestion latency in milliseconds", latency)
	m.lastIngestUnix = m.gauge("ingest_last_unix", "Unix time of the last committed batch")

	m.snapshotCount = m.counter("snapshot_total", "Snapshots taken before committing a batch")
	m.snapshotFailures = m.counter("snapshot_failures_total", "Snapshots that failed and aborted a batch")
	m.snapshotDuration = m.histogram("snapshot_duration_milliseconds", "Snapshot duration in milliseconds",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix time of the last successful snapshot")
	m.snapshotLastDuration = m.gauge("snapshot_last_duration_milliseconds", "Duration of the last snapshot")

	m.storageQueryLatency = m.histogramVec("storage_query_latency_milliseconds", "Storage round-trip latency by operation", latency, "operation")
	m.storageErrors = m.counterVec("storage_errors_total", "Storage failures by operation", "operation")

	m.datasetRows = m.gauge("dataset_rows", "Ranking rows in the store")
	m.datasetLatestEvent = m.gauge("dataset_latest_event", "Most recent event number")
	m.datasetFirstEvent = m.gauge("dataset_first_event", "Oldest event number")
	m.datasetParticipants = m.gauge("dataset_current_participants", "Guilds present in the most recent event")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		latency, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that failed", latency, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Query Metrics Functions.

// RecordSearch records one search with its latency and result size.
func RecordSearch(latencyMs float64, groups int) {
	globalManager.searchRequests.Inc()
	globalManager.searchLatency.Observe(latencyMs)
	globalManager.searchResults.Observe(float64(groups))
}

// RecordSearchCache records a cache lookup outcome.
func RecordSearchCache(hit bool) {
	if hit {
		globalManager.searchCacheHits.Inc()
		return
	}
	globalManager.searchCacheMiss.Inc()
}

// RecordQuery counts a read operation by name.
func RecordQuery(operation string) {
	globalManager.queryRequests.WithLabelValues(operation).Inc()
}

// RecordInvariantError counts a programming-defect signal.
func RecordInvariantError() {
	globalManager.invariantErrors.Inc()
}

// Ingestion Metrics Functions.

// RecordIngest records a batch outcome, its rows and latency.
func RecordIngest(outcome string, rows int, latencyMs float64) {
	globalManager.ingestBatches.WithLabelValues(outcome).Inc()
	globalManager.ingestLatency.Observe(latencyMs)
	if outcome == OutcomeSuccess {
		globalManager.ingestRows.Add(float64(rows))
		globalManager.lastIngestUnix.Set(float64(time.Now().Unix()))
	}
}

// Snapshot Metrics Functions.

// RecordSnapshot records a successful snapshot duration.
func RecordSnapshot(durationMs float64) {
	globalManager.snapshotCount.Inc()
	globalManager.snapshotDuration.Observe(durationMs)
	globalManager.snapshotLastDuration.Set(durationMs)
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
}

// RecordSnapshotFailure counts a snapshot that aborted a batch.
func RecordSnapshotFailure() {
	globalManager.snapshotFailures.Inc()
}

// Storage Metrics Functions.

// RecordStorageLatency records a storage round-trip.
func RecordStorageLatency(operation string, latencyMs float64) {
	globalManager.storageQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStorageError counts a failed storage operation.
func RecordStorageError(operation string) {
	globalManager.storageErrors.WithLabelValues(operation).Inc()
}

// Dataset Metrics Functions.

// UpdateDataset sets the dataset gauges.
func UpdateDataset(rows, firstEvent, latestEvent, participants int) {
	globalManager.datasetRows.Set(float64(rows))
	globalManager.datasetFirstEvent.Set(float64(firstEvent))
	globalManager.datasetLatestEvent.Set(float64(latestEvent))
	globalManager.datasetParticipants.Set(float64(participants))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
