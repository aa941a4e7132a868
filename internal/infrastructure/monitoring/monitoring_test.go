package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	domainllm "github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func newCollector(t *testing.T) (*MetricsCollector, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewMetricsCollector(reg, reg, zaptest.NewLogger(t)), reg
}

func TestPipelineMetrics(t *testing.T) {
	m, _ := newCollector(t)

	m.ObserveBatch("optimize", 4, 1, 3*time.Second)
	m.ObserveReview(optimization.KindSuggestion, optimization.StatusApproved)
	m.ObserveReview(optimization.KindSuggestion, optimization.StatusApproved)
	m.ObserveModelCall(domainllm.ProviderAnthropic, "error", time.Second)
	m.ObserveModelRetry(domainllm.ProviderAnthropic)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.batchItemsTotal.WithLabelValues("optimize", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchItemsTotal.WithLabelValues("optimize", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reviewsTotal.WithLabelValues("suggestion", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCallsTotal.WithLabelValues("anthropic", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelRetriesTotal.WithLabelValues("anthropic")))
}

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m, _ := newCollector(t)

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/restaurants/{id}/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants/r1/metrics", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/restaurants/{id}/metrics", "418")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "menusense_http_requests_total"))
}

func TestTracingProviderRecordsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	recorder := tracetest.NewSpanRecorder()
	tp, err := NewTracingProvider(TracingConfig{
		ServiceName:  "menusense-test",
		SamplingRate: 1,
		Enabled:      true,
	}, zaptest.NewLogger(t), trace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	ctx, span := otel.Tracer("test").Start(context.Background(), "batch.optimize")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "batch.optimize", spans[0].Name())
}

func TestTracingDisabled(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
