package observability

import (
	"context"
	"fmt"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of device spans.
const TracerName = "github.com/goliatone/go-device-cache"

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
	Insecure    bool
}

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracing installs the global tracer provider and propagator. When
// tracing is disabled a noop provider is returned and nothing is exported.
func InitTracing(ctx context.Context, cfg TracingConfig) (trace.TracerProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "devicesvc"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRatio <= 0 || cfg.SampleRatio > 1 {
		cfg.SampleRatio = 1
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, tp.Shutdown, nil
}

// TracingService starts one span per device operation.
type TracingService struct {
	inner  device.Service
	tracer trace.Tracer
}

var _ device.Service = (*TracingService)(nil)

// NewTracingService traces inner with a tracer from provider. A nil
// provider uses the global one.
func NewTracingService(inner device.Service, provider trace.TracerProvider) *TracingService {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracingService{
		inner:  inner,
		tracer: provider.Tracer(TracerName),
	}
}

func (s *TracingService) RegisterDevice(ctx context.Context, in device.RegisterInput) (device.View, error) {
	ctx, span := s.start(ctx, OpRegisterDevice, attribute.String("device.type", in.Type))
	defer span.End()

	view, err := s.inner.RegisterDevice(ctx, in)
	if err == nil {
		span.SetAttributes(attribute.String("device.id", view.ID.String()))
	}
	finishSpan(span, err)
	return view, err
}

func (s *TracingService) GetDeviceByID(ctx context.Context, id uuid.UUID) (device.View, error) {
	ctx, span := s.start(ctx, OpGetDevice, attribute.String("device.id", id.String()))
	defer span.End()

	view, err := s.inner.GetDeviceByID(ctx, id)
	finishSpan(span, err)
	return view, err
}

func (s *TracingService) ListDevices(ctx context.Context, filter device.Filter, page device.Pagination) (device.Page[device.View], error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size),
		attribute.String("sort.by", string(filter.SortBy)),
		attribute.String("sort.order", string(filter.SortOrder)),
	}
	if filter.Type != "" {
		attrs = append(attrs, attribute.String("filter.type", filter.Type))
	}
	if filter.Location != "" {
		attrs = append(attrs, attribute.String("filter.location", filter.Location))
	}
	if filter.IsOnline != nil {
		attrs = append(attrs, attribute.Bool("filter.is_online", *filter.IsOnline))
	}

	ctx, span := s.start(ctx, OpListDevices, attrs...)
	defer span.End()

	result, err := s.inner.ListDevices(ctx, filter, page)
	if err == nil {
		span.SetAttributes(
			attribute.Int("result.total_count", result.TotalCount),
			attribute.Int("result.items", len(result.Items)),
		)
	}
	finishSpan(span, err)
	return result, err
}

func (s *TracingService) UpdateDevice(ctx context.Context, id uuid.UUID, in device.UpdateInput) (device.View, error) {
	ctx, span := s.start(ctx, OpUpdateDevice, attribute.String("device.id", id.String()))
	defer span.End()

	view, err := s.inner.UpdateDevice(ctx, id, in)
	finishSpan(span, err)
	return view, err
}

func (s *TracingService) DeleteDevice(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := s.start(ctx, OpDeleteDevice, attribute.String("device.id", id.String()))
	defer span.End()

	deleted, err := s.inner.DeleteDevice(ctx, id)
	span.SetAttributes(attribute.Bool("device.deleted", deleted))
	finishSpan(span, err)
	return deleted, err
}

func (s *TracingService) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "devices."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// finishSpan records err on span. Not-found is a normal outcome and only
// sets device.found=false.
func finishSpan(span trace.Span, err error) {
	outcome := Outcome(err)
	span.SetAttributes(attribute.String("outcome", outcome))

	switch outcome {
	case OutcomeOK:
		return
	case OutcomeNotFound:
		span.SetAttributes(attribute.Bool("device.found", false))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
