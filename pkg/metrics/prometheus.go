// Package metrics provides Prometheus metrics for the TOPSIS service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultSizeBuckets is the default layout of the dataset shape histograms.
var defaultSizeBuckets = []float64{2, 5, 10, 25, 50, 100, 250, 1000, 10000} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the TOPSIS service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	sizeBuckets      []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline metrics
	runs            *prometheus.CounterVec
	runFailures     *prometheus.CounterVec
	runLatency      prometheus.Histogram
	datasetRows     prometheus.Histogram
	datasetCriteria prometheus.Histogram

	// Delivery queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Delivery worker metrics
	workerActiveCount prometheus.Gauge
	deliveriesSent    prometheus.Counter
	deliveriesFailed  prometheus.Counter
	deliveryRetries   prometheus.Counter
	deliveryLatency   prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "topsis",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		sizeBuckets:      defaultSizeBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(m.counterOpts("runs_total", "Total number of TOPSIS runs by outcome"), []string{"outcome"})
	m.runFailures = auto.NewCounterVec(m.counterOpts("run_failures_total", "Failed TOPSIS runs by error kind"), []string{"kind"})
	m.runLatency = auto.NewHistogram(m.histogramOpts("run_latency_milliseconds", "End-to-end run latency in milliseconds", m.histogramBuckets))
	m.datasetRows = auto.NewHistogram(m.histogramOpts("dataset_rows", "Number of alternatives per scored dataset", m.sizeBuckets))
	m.datasetCriteria = auto.NewHistogram(m.histogramOpts("dataset_criteria", "Number of criteria per scored dataset", m.sizeBuckets))

	m.queueSize = auto.NewGauge(m.gaugeOpts("delivery_queue_size", "Current number of queued deliveries"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("delivery_queue_capacity", "Maximum delivery queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("delivery_queue_utilization_ratio", "Delivery queue utilization ratio (size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("delivery_queue_enqueue_total", "Total number of deliveries enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("delivery_queue_dequeue_total", "Total number of deliveries dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("delivery_queue_enqueue_errors_total", "Total number of rejected enqueues"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("delivery_worker_active_count", "Number of running delivery workers"))
	m.deliveriesSent = auto.NewCounter(m.counterOpts("deliveries_sent_total", "Total number of results delivered"))
	m.deliveriesFailed = auto.NewCounter(m.counterOpts("deliveries_failed_total", "Total number of deliveries abandoned after all attempts"))
	m.deliveryRetries = auto.NewCounter(m.counterOpts("delivery_retries_total", "Total number of delivery retries"))
	m.deliveryLatency = auto.NewHistogram(m.histogramOpts("delivery_latency_milliseconds", "Delivery latency in milliseconds", m.histogramBuckets))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
}

// Pipeline Metrics Functions.

// RecordRunSuccess records a successful run and the shape of its dataset.
func RecordRunSuccess(rows, criteria int, latencyMs float64) {
	globalManager.runs.WithLabelValues("success").Inc()
	globalManager.runLatency.Observe(latencyMs)
	globalManager.datasetRows.Observe(float64(rows))
	globalManager.datasetCriteria.Observe(float64(criteria))
}

// RecordRunFailure records a failed run labelled with its error kind code.
func RecordRunFailure(kind string, latencyMs float64) {
	globalManager.runs.WithLabelValues("failure").Inc()
	globalManager.runFailures.WithLabelValues(kind).Inc()
	globalManager.runLatency.Observe(latencyMs)
}

// Delivery Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Delivery Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordDeliverySent records a successful delivery and its latency.
func RecordDeliverySent(latencyMs float64) {
	globalManager.deliveriesSent.Inc()
	globalManager.deliveryLatency.Observe(latencyMs)
}

// RecordDeliveryFailed records a delivery abandoned after its last attempt.
func RecordDeliveryFailed() {
	globalManager.deliveriesFailed.Inc()
}

// RecordDeliveryRetry increments the retry counter.
func RecordDeliveryRetry() {
	globalManager.deliveryRetries.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
