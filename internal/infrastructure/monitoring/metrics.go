// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	domainllm "github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "menusense"

// MetricsCollector handles Prometheus metrics collection. It satisfies the
// optimization service's Recorder and the model client's Observer.
type MetricsCollector struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Model provider metrics
	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	modelRetriesTotal *prometheus.CounterVec

	// Pipeline metrics
	batchItemsTotal *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	reviewsTotal    *prometheus.CounterVec
}

// NewMetricsCollector registers every metric on reg. gatherer serves the
// /metrics endpoint.
func NewMetricsCollector(reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *zap.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:     logger.Named("metrics"),
		registerer: reg,
		gatherer:   gatherer,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Completed model calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Model call latency including retries",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),
		modelRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_retries_total",
				Help:      "Retried model call attempts",
			},
			[]string{"provider"},
		),

		batchItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_items_total",
				Help:      "Items processed by batch operations",
			},
			[]string{"operation", "result"},
		),
		batchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Batch operation duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
		reviewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_total",
				Help:      "Review decisions by candidate kind and resulting status",
			},
			[]string{"kind", "status"},
		),
	}
}

// ObserveBatch records the outcome of one batch operation
func (m *MetricsCollector) ObserveBatch(operation string, succeeded, failed int, elapsed time.Duration) {
	m.batchItemsTotal.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	m.batchItemsTotal.WithLabelValues(operation, "failed").Add(float64(failed))
	m.batchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveReview records one review transition
func (m *MetricsCollector) ObserveReview(kind optimization.Kind, status optimization.Status) {
	m.reviewsTotal.WithLabelValues(string(kind), string(status)).Inc()
}

// ObserveModelCall records one completed model call
func (m *MetricsCollector) ObserveModelCall(provider domainllm.Provider, outcome string, elapsed time.Duration) {
	m.modelCallsTotal.WithLabelValues(string(provider), outcome).Inc()
	m.modelCallDuration.WithLabelValues(string(provider)).Observe(elapsed.Seconds())
}

// ObserveModelRetry records one retried attempt
func (m *MetricsCollector) ObserveModelRetry(provider domainllm.Provider) {
	m.modelRetriesTotal.WithLabelValues(string(provider)).Inc()
}

// RegisterDBStats exports connection pool statistics for db
func (m *MetricsCollector) RegisterDBStats(db *sql.DB, name string) {
	if err := m.registerer.Register(collectors.NewDBStatsCollector(db, name)); err != nil {
		m.logger.Warn("Failed to register database stats collector", zap.Error(err))
	}
}

// Handler serves the registered metrics
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts and latency per chi route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
