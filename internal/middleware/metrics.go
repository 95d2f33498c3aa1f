package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printforge_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printforge_http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printforge_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "printforge_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"method"},
	)

	// Telemetry ingestion metrics
	samplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_telemetry_samples_ingested_total",
			Help: "Total number of printer telemetry samples ingested",
		},
		[]string{"tenant_id"},
	)

	jobEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_job_events_recorded_total",
			Help: "Total number of print job lifecycle events recorded",
		},
		[]string{"tenant_id", "event"},
	)

	ingestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printforge_telemetry_ingest_latency_seconds",
			Help:    "Telemetry batch ingest latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"tenant_id"},
	)

	// Commerce metrics
	ordersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_orders_placed_total",
			Help: "Total number of orders placed",
		},
		[]string{"tenant_id"},
	)

	orderRevenueCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_order_revenue_cents_total",
			Help: "Total order revenue in cents",
		},
		[]string{"tenant_id", "currency"},
	)

	// Print farm metrics
	jobsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_print_jobs_dispatched_total",
			Help: "Total number of print jobs assigned to printers",
		},
		[]string{"tenant_id"},
	)

	modelUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_model_uploads_total",
			Help: "Total number of model file uploads",
		},
		[]string{"tenant_id", "format"},
	)

	// Notification metrics
	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printforge_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"event", "status"},
	)
)

// MetricsConfig configures the metrics middleware
type MetricsConfig struct {
	// Skip function
	Skip func(*fiber.Ctx) bool
	// PathNormalizer normalizes paths for metrics labels
	PathNormalizer func(string) string
}

// DefaultMetricsConfig returns default metrics config
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Skip:           HealthSkipper,
		PathNormalizer: DefaultPathNormalizer,
	}
}

// DefaultPathNormalizer normalizes paths by replacing IDs with placeholders
func DefaultPathNormalizer(path string) string {
	// This is a simple normalizer - in production you might want something more sophisticated
	return path
}

// MetricsMiddleware creates a Prometheus metrics middleware
type MetricsMiddleware struct {
	config MetricsConfig
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(config MetricsConfig) *MetricsMiddleware {
	return &MetricsMiddleware{
		config: config,
	}
}

// Handler returns the metrics handler
func (m *MetricsMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip if configured
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()
		path := m.config.PathNormalizer(c.Path())

		// Track active requests
		httpActiveRequests.WithLabelValues(method).Inc()
		defer httpActiveRequests.WithLabelValues(method).Dec()

		// Process request
		err := c.Next()

		// Record metrics
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		requestSize := float64(len(c.Request().Body()))
		responseSize := float64(len(c.Response().Body()))

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpRequestSize.WithLabelValues(method, path).Observe(requestSize)
		httpResponseSize.WithLabelValues(method, path).Observe(responseSize)

		return err
	}
}

// RecordSamplesIngested records a batch of ingested telemetry samples
func RecordSamplesIngested(tenantID string, count int) {
	samplesIngested.WithLabelValues(tenantID).Add(float64(count))
}

// RecordJobEvent records a print job lifecycle event
func RecordJobEvent(tenantID, event string) {
	jobEventsRecorded.WithLabelValues(tenantID, event).Inc()
}

// RecordIngestLatency records telemetry ingest latency
func RecordIngestLatency(tenantID string, duration time.Duration) {
	ingestLatency.WithLabelValues(tenantID).Observe(duration.Seconds())
}

// RecordOrderPlaced records a placed order and its revenue
func RecordOrderPlaced(tenantID, currency string, totalCents int64) {
	ordersPlaced.WithLabelValues(tenantID).Inc()
	orderRevenueCents.WithLabelValues(tenantID, currency).Add(float64(totalCents))
}

// RecordJobDispatched records a print job assignment
func RecordJobDispatched(tenantID string) {
	jobsDispatched.WithLabelValues(tenantID).Inc()
}

// RecordModelUpload records a model file upload
func RecordModelUpload(tenantID, format string) {
	modelUploads.WithLabelValues(tenantID, format).Inc()
}

// RecordWebhookDelivery records a webhook delivery attempt
func RecordWebhookDelivery(event, status string) {
	webhookDeliveries.WithLabelValues(event, status).Inc()
}

// SimpleMetrics creates a simple metrics middleware
func SimpleMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" || c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()

		err := c.Next()

		httpRequestsTotal.WithLabelValues(
			c.Method(),
			c.Path(),
			strconv.Itoa(c.Response().StatusCode()),
		).Inc()

		httpRequestDuration.WithLabelValues(
			c.Method(),
			c.Path(),
		).Observe(time.Since(start).Seconds())

		return err
	}
}
