package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/goliatone/go-device-cache/internal/logging"
	"github.com/goliatone/go-device-cache/internal/store/memstore"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// brokenService answers GetDeviceByID with err after delay.
type brokenService struct {
	device.Service
	err   error
	delay time.Duration
}

func (b brokenService) GetDeviceByID(ctx context.Context, id uuid.UUID) (device.View, error) {
	time.Sleep(b.delay)
	return device.View{}, b.err
}

func newCore() device.Service {
	return device.NewService(memstore.New())
}

func TestOutcome(t *testing.T) {
	_, validationErr := newCore().RegisterDevice(context.Background(), device.RegisterInput{})

	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeNotFound, Outcome(fmt.Errorf("wrapped: %w", device.ErrDeviceNotFound)))
	assert.Equal(t, OutcomeInvalid, Outcome(validationErr))
	assert.Equal(t, OutcomeCanceled, Outcome(context.DeadlineExceeded))
	assert.Equal(t, OutcomeError, Outcome(errors.New("boom")))
}

func TestLoggingService_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewLoggingService(newCore(), zap.New(core), DefaultLoggingConfig())
	ctx := logging.WithCorrelationID(context.Background(), "corr-1")

	view, err := svc.RegisterDevice(ctx, device.RegisterInput{Name: "Lamp", Type: "light"})
	require.NoError(t, err)
	_, err = svc.GetDeviceByID(ctx, uuid.New())
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "register_device", entries[0].ContextMap()["operation"])
	assert.Equal(t, view.ID.String(), entries[0].ContextMap()["device_id"])
	assert.Equal(t, "corr-1", entries[0].ContextMap()["correlation_id"])
	assert.Equal(t, "devices", entries[0].LoggerName)

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, OutcomeNotFound, entries[1].ContextMap()["outcome"])
}

func TestLoggingService_FailuresAndSlowCalls(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := LoggingConfig{SlowThreshold: time.Millisecond, SuccessLevel: zapcore.DebugLevel}

	failing := NewLoggingService(brokenService{err: errors.New("db down")}, zap.New(core), cfg)
	_, err := failing.GetDeviceByID(context.Background(), uuid.New())
	require.Error(t, err)

	slow := NewLoggingService(brokenService{delay: 5 * time.Millisecond}, zap.New(core), cfg)
	_, err = slow.GetDeviceByID(context.Background(), uuid.New())
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "device operation failed", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "slow device operation", entries[1].Message)
}

func newRecordedTracing(inner device.Service) (*TracingService, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracingService(inner, provider), recorder
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingService_Spans(t *testing.T) {
	svc, recorder := newRecordedTracing(newCore())
	ctx := context.Background()

	view, err := svc.RegisterDevice(ctx, device.RegisterInput{Name: "Lamp", Type: "light"})
	require.NoError(t, err)
	_, err = svc.GetDeviceByID(ctx, uuid.New())
	require.Error(t, err)
	_, err = svc.UpdateDevice(ctx, view.ID, device.UpdateInput{})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "devices.register_device", spans[0].Name())
	id, ok := attr(spans[0], "device.id")
	require.True(t, ok)
	assert.Equal(t, view.ID.String(), id.AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "devices.get_device_by_id", spans[1].Name())
	found, ok := attr(spans[1], "device.found")
	require.True(t, ok)
	assert.False(t, found.AsBool())
	assert.Equal(t, codes.Unset, spans[1].Status().Code, "not found is not a span error")
	assert.Empty(t, spans[1].Events())

	assert.Equal(t, "devices.update_device", spans[2].Name())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.NotEmpty(t, spans[2].Events(), "validation errors are recorded")
}

func TestTracingService_ListAttributes(t *testing.T) {
	svc, recorder := newRecordedTracing(newCore())
	online := true

	_, err := svc.ListDevices(context.Background(), device.Filter{Type: "light", IsOnline: &online}, device.NewPagination(2, 5))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	size, ok := attr(spans[0], "page.size")
	require.True(t, ok)
	assert.Equal(t, int64(5), size.AsInt64())
	typ, ok := attr(spans[0], "filter.type")
	require.True(t, ok)
	assert.Equal(t, "light", typ.AsString())
}

func TestInitTracing_Disabled(t *testing.T) {
	provider, shutdown, err := InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMetricsService_CountsOutcomes(t *testing.T) {
	metrics := NewMetrics("")
	svc := NewMetricsService(newCore(), metrics)
	ctx := context.Background()

	view, err := svc.RegisterDevice(ctx, device.RegisterInput{Name: "Lamp", Type: "light"})
	require.NoError(t, err)
	_, err = svc.GetDeviceByID(ctx, view.ID)
	require.NoError(t, err)
	_, err = svc.GetDeviceByID(ctx, uuid.New())
	require.Error(t, err)
	deleted, err := svc.DeleteDevice(ctx, view.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues(OpRegisterDevice, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues(OpGetDevice, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues(OpGetDevice, OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues(OpDeleteDevice, OutcomeOK)))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.operationDuration))
}

func TestMetrics_CacheObserver(t *testing.T) {
	metrics := NewMetrics("test")

	metrics.ObserveCacheResult(true)
	metrics.ObserveCacheResult(false)
	metrics.ObserveCacheResult(false)
	metrics.ObserveCacheError("set")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheErrors.WithLabelValues("set")))
}

func TestMetrics_Handler(t *testing.T) {
	metrics := NewMetrics("")
	metrics.ObserveHTTP("GET", "/api/devices/{id}", 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(body, `devicesvc_http_requests_total{method="GET",route="/api/devices/{id}",status="200"} 1`), body)
	assert.Contains(t, body, "devicesvc_http_request_duration_seconds")
}
