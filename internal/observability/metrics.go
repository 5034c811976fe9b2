package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goliatone/go-device-cache/cache"
	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "devicesvc"

// Metrics holds the service collectors on a private registry, so several
// instances can coexist in one process (tests, embedded use).
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	cacheRequests     *prometheus.CounterVec
	cacheErrors       *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

var _ cache.Observer = (*Metrics)(nil)

// NewMetrics creates and registers the collectors. An empty namespace uses
// DefaultNamespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_operations_total",
			Help:      "Device service operations by outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_operation_duration_seconds",
			Help:      "Device service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by result (hit, miss).",
		}, []string{"result"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Swallowed cache failures by operation.",
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.operations,
		m.operationDuration,
		m.cacheRequests,
		m.cacheErrors,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCacheError(operation string) {
	m.cacheErrors.WithLabelValues(operation).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) observeOperation(operation string, start time.Time, err error) {
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// MetricsService counts and times device operations.
type MetricsService struct {
	inner   device.Service
	metrics *Metrics
}

var _ device.Service = (*MetricsService)(nil)

func NewMetricsService(inner device.Service, metrics *Metrics) *MetricsService {
	return &MetricsService{inner: inner, metrics: metrics}
}

func (s *MetricsService) RegisterDevice(ctx context.Context, in device.RegisterInput) (device.View, error) {
	start := time.Now()
	view, err := s.inner.RegisterDevice(ctx, in)
	s.metrics.observeOperation(OpRegisterDevice, start, err)
	return view, err
}

func (s *MetricsService) GetDeviceByID(ctx context.Context, id uuid.UUID) (device.View, error) {
	start := time.Now()
	view, err := s.inner.GetDeviceByID(ctx, id)
	s.metrics.observeOperation(OpGetDevice, start, err)
	return view, err
}

func (s *MetricsService) ListDevices(ctx context.Context, filter device.Filter, page device.Pagination) (device.Page[device.View], error) {
	start := time.Now()
	result, err := s.inner.ListDevices(ctx, filter, page)
	s.metrics.observeOperation(OpListDevices, start, err)
	return result, err
}

func (s *MetricsService) UpdateDevice(ctx context.Context, id uuid.UUID, in device.UpdateInput) (device.View, error) {
	start := time.Now()
	view, err := s.inner.UpdateDevice(ctx, id, in)
	s.metrics.observeOperation(OpUpdateDevice, start, err)
	return view, err
}

func (s *MetricsService) DeleteDevice(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	deleted, err := s.inner.DeleteDevice(ctx, id)
	s.metrics.observeOperation(OpDeleteDevice, start, err)
	return deleted, err
}
