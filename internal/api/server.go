// Package api exposes device.Service over HTTP with chi.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-device-cache/internal/auth"
	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/goliatone/go-device-cache/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DevicesPath is the collection route.
const DevicesPath = "/api/devices"

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server dependencies. Only Devices and Store are
// required.
type Options struct {
	Devices device.Service
	Store   Pinger

	// Cache is reported as degraded, never unavailable, when its ping fails.
	Cache Pinger

	// Metrics enables /metrics and HTTP request metrics.
	Metrics *observability.Metrics

	// Auth protects the device routes when set.
	Auth *auth.Authenticator

	// TracerProvider creates server spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider

	Logger *zap.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	devices device.Service
	store   Pinger
	cache   Pinger
	metrics *observability.Metrics
	auth    *auth.Authenticator
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewServer builds a Server from opts.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := opts.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Server{
		devices: opts.Devices,
		store:   opts.Store,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		auth:    opts.Auth,
		tracer:  provider.Tracer(observability.TracerName + "/api"),
		logger:  logger.Named("http"),
	}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracingMiddleware)
	r.Use(s.correlationMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusNotFound, CodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil)
	})

	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route(DevicesPath, func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.Middleware(s.writeAuthError))
		}

		r.Get("/", s.handleListDevices)
		r.Post("/", s.handleRegisterDevice)
		r.Post("/register", s.handleRegisterDevice)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Put("/", s.handleUpdateDevice)
			r.Delete("/", s.handleDeleteDevice)
		})
	})

	return r
}
