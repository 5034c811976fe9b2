// Package di wires the device service from a config.Config: store, cache
// backend, decorator chain, auth and HTTP server.
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-device-cache/cache"
	"github.com/goliatone/go-device-cache/devicecache"
	"github.com/goliatone/go-device-cache/internal/api"
	"github.com/goliatone/go-device-cache/internal/auth"
	"github.com/goliatone/go-device-cache/internal/cacheinfra"
	"github.com/goliatone/go-device-cache/internal/config"
	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/goliatone/go-device-cache/internal/observability"
	"github.com/goliatone/go-device-cache/internal/store/bunstore"
	"github.com/goliatone/go-device-cache/internal/store/memstore"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Container owns the long lived components of the service. Its accessors
// always return the same instances.
type Container struct {
	cfg    *config.Config
	logger *zap.Logger

	db      *bun.DB
	store   device.Store
	backend cache.Backend
	cache   *cache.FailOpen
	cached  *devicecache.CachedService
	devices device.Service
	metrics *observability.Metrics
	auth    *auth.Authenticator

	tracerProvider trace.TracerProvider
	shutdownTracer observability.ShutdownFunc

	server *api.Server
}

// Option customizes a Container before its components are built.
type Option func(*Container)

// WithStore replaces the configured store, e.g. with a test double.
func WithStore(store device.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithCacheBackend replaces the configured cache backend.
func WithCacheBackend(backend cache.Backend) Option {
	return func(c *Container) {
		c.backend = backend
	}
}

// NewContainer builds every component described by cfg. On error the
// components already opened are closed.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *Container, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	defer func() {
		if err != nil {
			c.Close(context.Background())
		}
	}()

	if c.store == nil {
		store, err := c.openStore(ctx)
		if err != nil {
			return nil, err
		}
		c.store = store
	}
	if cfg.Database.Seed {
		seeded, seedErr := device.SeedDemoDevices(ctx, c.store, time.Now())
		if seedErr != nil {
			return nil, seedErr
		}
		if seeded > 0 {
			logger.Info("seeded demo devices", zap.Int("count", seeded))
		}
	}

	if cfg.Metrics.Enabled {
		c.metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	if c.backend == nil {
		backend, err := c.newBackend()
		if err != nil {
			return nil, err
		}
		c.backend = backend
	}
	cacheOpts := []cache.Option{cache.WithLogger(logger.Named("cache"))}
	if c.metrics != nil {
		cacheOpts = append(cacheOpts, cache.WithObserver(c.metrics))
	}
	if c.cache, err = cache.NewFailOpen(c.backend, cacheConfig(cfg.Cache), cacheOpts...); err != nil {
		return nil, fmt.Errorf("cache service: %w", err)
	}

	c.tracerProvider, c.shutdownTracer, err = observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return nil, err
	}

	c.cached = devicecache.New(device.NewService(c.store), c.cache,
		devicecache.WithTTL(cfg.Cache.DefaultTTL),
		devicecache.WithInvalidationTimeout(cfg.Cache.InvalidationTimeout),
	)

	var svc device.Service = c.cached
	svc = observability.NewLoggingService(svc, logger, observability.DefaultLoggingConfig())
	svc = observability.NewTracingService(svc, c.tracerProvider)
	if c.metrics != nil {
		svc = observability.NewMetricsService(svc, c.metrics)
	}
	c.devices = svc

	if cfg.Auth.Enabled {
		c.auth, err = auth.New(auth.Config{
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			Secret:   []byte(cfg.Auth.Secret),
			TTL:      cfg.Auth.TokenTTL,
		})
		if err != nil {
			return nil, err
		}
	}

	c.server = api.NewServer(api.Options{
		Devices:        c.devices,
		Store:          c.store,
		Cache:          c.cache,
		Metrics:        c.metrics,
		Auth:           c.auth,
		TracerProvider: c.tracerProvider,
		Logger:         logger,
	})

	logger.Info("device service ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Backend),
		zap.Bool("auth", c.auth != nil),
		zap.Bool("metrics", c.metrics != nil),
		zap.Bool("tracing", cfg.Tracing.Enabled),
	)
	return c, nil
}

func (c *Container) openStore(ctx context.Context) (device.Store, error) {
	db := c.cfg.Database
	switch strings.ToLower(db.Driver) {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		conn, err := bunstore.Open(ctx, db.Driver, db.DSN, db.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		c.db = conn
		if db.AutoMigrate {
			if err := bunstore.Migrate(ctx, conn); err != nil {
				return nil, err
			}
		}
		return bunstore.New(conn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
	}
}

func (c *Container) newBackend() (cache.Backend, error) {
	cc := c.cfg.Cache
	switch strings.ToLower(cc.Backend) {
	case config.CacheRedis:
		rc := cacheinfra.DefaultRedisConfig()
		rc.Addr = cc.Redis.Addr
		rc.Password = cc.Redis.Password
		rc.DB = cc.Redis.DB
		rc.KeyPrefix = cc.Redis.KeyPrefix
		rc.PoolSize = cc.Redis.PoolSize
		if cc.Redis.DialTimeout > 0 {
			rc.DialTimeout = cc.Redis.DialTimeout
		}
		if cc.Redis.ReadTimeout > 0 {
			rc.ReadTimeout = cc.Redis.ReadTimeout
		}
		if cc.Redis.WriteTimeout > 0 {
			rc.WriteTimeout = cc.Redis.WriteTimeout
		}
		backend, err := cacheinfra.NewRedisBackend(rc)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.CacheMemory:
		mc := cacheinfra.DefaultConfig()
		if cc.Memory.Capacity > 0 {
			mc.Capacity = cc.Memory.Capacity
		}
		if cc.Memory.NumShards > 0 {
			mc.NumShards = cc.Memory.NumShards
		}
		if cc.Memory.EvictionPercentage > 0 {
			mc.EvictionPercentage = cc.Memory.EvictionPercentage
		}
		if cc.DefaultTTL > 0 {
			mc.TTL = cc.DefaultTTL
		}
		backend, err := cacheinfra.NewSturdycBackend(mc)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.CacheNone:
		return cacheinfra.NoopBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cc.Backend)
	}
}

func cacheConfig(cc config.CacheConfig) cache.Config {
	cfg := cache.DefaultConfig()
	if cc.DefaultTTL > 0 {
		cfg.DefaultTTL = cc.DefaultTTL
	}
	if cc.OperationTimeout >= 0 {
		cfg.OperationTimeout = cc.OperationTimeout
	}
	cfg.Breaker = cache.BreakerConfig{
		Enabled:             cc.Breaker.Enabled,
		ConsecutiveFailures: cc.Breaker.ConsecutiveFailures,
		OpenTimeout:         cc.Breaker.OpenTimeout,
		HalfOpenRequests:    cc.Breaker.HalfOpenRequests,
	}
	return cfg
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.cfg }

// Devices returns the fully decorated device service.
func (c *Container) Devices() device.Service { return c.devices }

// CachedDevices returns the cache-aside layer without the observability
// decorators.
func (c *Container) CachedDevices() *devicecache.CachedService { return c.cached }

func (c *Container) Store() device.Store { return c.store }

// Cache returns the fail-open cache service.
func (c *Container) Cache() *cache.FailOpen { return c.cache }

// Metrics is nil when metrics are disabled.
func (c *Container) Metrics() *observability.Metrics { return c.metrics }

// Auth is nil when auth is disabled.
func (c *Container) Auth() *auth.Authenticator { return c.auth }

func (c *Container) TracerProvider() trace.TracerProvider { return c.tracerProvider }

// Handler returns the HTTP handler serving the device API.
func (c *Container) Handler() http.Handler { return c.server.Handler() }

// Close flushes traces and releases the cache and database connections.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.shutdownTracer != nil {
		if err := c.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	} else if c.backend != nil {
		if err := c.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache backend: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
