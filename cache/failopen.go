package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// FailOpen wraps a Backend so that every failure is logged and converted
// into a miss (reads) or a no-op (writes). Panics raised by the backend or
// the codec are recovered the same way.
type FailOpen struct {
	backend  Backend
	codec    Codec
	cfg      Config
	logger   *zap.Logger
	breaker  *gobreaker.CircuitBreaker
	observer Observer
}

var _ Service = (*FailOpen)(nil)

// Option customizes a FailOpen service.
type Option func(*FailOpen)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *FailOpen) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an Observer for hit, miss and error events.
func WithObserver(observer Observer) Option {
	return func(s *FailOpen) {
		s.observer = observer
	}
}

// WithCodec replaces the default msgpack codec.
func WithCodec(codec Codec) Option {
	return func(s *FailOpen) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// NewFailOpen validates cfg and wraps backend.
func NewFailOpen(backend Backend, cfg Config, opts ...Option) (*FailOpen, error) {
	if backend == nil {
		return nil, &ConfigError{Field: "Backend", Message: "cannot be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &FailOpen{
		backend: backend,
		codec:   MsgpackCodec{},
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Breaker.Enabled {
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "cache",
			MaxRequests: cfg.Breaker.HalfOpenRequests,
			Timeout:     cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Breaker.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				s.logger.Warn("cache circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
			// A caller giving up is not a backend fault.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}

	return s, nil
}

// Get implements Service.Get.
func (s *FailOpen) Get(ctx context.Context, key string, dest any) (hit bool) {
	defer s.recoverTo("get", key, func() { hit = false })

	res, err := s.call(ctx, func(ctx context.Context) (any, error) {
		data, ok, err := s.backend.Get(ctx, key)
		if err != nil || !ok {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		s.fail("get", key, err)
		s.result(false)
		return false
	}

	data, _ := res.([]byte)
	if len(data) == 0 {
		s.result(false)
		return false
	}

	if err := s.codec.Unmarshal(data, dest); err != nil {
		s.fail("decode", key, err)
		s.result(false)
		return false
	}

	s.result(true)
	return true
}

// Set implements Service.Set.
func (s *FailOpen) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	defer s.recoverTo("set", key, nil)

	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}

	data, err := s.codec.Marshal(value)
	if err != nil {
		s.fail("encode", key, err)
		return
	}

	if _, err := s.call(ctx, func(ctx context.Context) (any, error) {
		return nil, s.backend.Set(ctx, key, data, ttl)
	}); err != nil {
		s.fail("set", key, err)
	}
}

// Remove implements Service.Remove.
func (s *FailOpen) Remove(ctx context.Context, key string) {
	defer s.recoverTo("remove", key, nil)

	if _, err := s.call(ctx, func(ctx context.Context) (any, error) {
		return nil, s.backend.Delete(ctx, key)
	}); err != nil {
		s.fail("remove", key, err)
	}
}

// RemoveByPattern implements Service.RemoveByPattern. A failed sweep is
// not retried; the next write sweeps again.
func (s *FailOpen) RemoveByPattern(ctx context.Context, pattern string) {
	defer s.recoverTo("remove_by_pattern", pattern, nil)

	res, err := s.call(ctx, func(ctx context.Context) (any, error) {
		return s.backend.DeleteByPattern(ctx, pattern)
	})
	if err != nil {
		s.fail("remove_by_pattern", pattern, err)
		return
	}

	if removed, ok := res.(int); ok {
		s.logger.Debug("cache keys removed",
			zap.String("pattern", pattern),
			zap.Int("removed", removed),
		)
	}
}

// Ping implements Service.Ping.
func (s *FailOpen) Ping(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache ping panicked: %v", r)
		}
	}()
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *FailOpen) Close() error {
	return s.backend.Close()
}

func (s *FailOpen) call(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if s.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OperationTimeout)
		defer cancel()
	}

	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
}

func (s *FailOpen) fail(operation, key string, err error) {
	if s.observer != nil {
		s.observer.ObserveCacheError(operation)
	}

	level := zap.WarnLevel
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		level = zap.DebugLevel
	}
	if ce := s.logger.Check(level, "cache operation failed"); ce != nil {
		ce.Write(
			zap.String("operation", operation),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (s *FailOpen) result(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCacheResult(hit)
	}
}

func (s *FailOpen) recoverTo(operation, key string, onPanic func()) {
	r := recover()
	if r == nil {
		return
	}
	s.fail(operation, key, fmt.Errorf("panic: %v", r))
	if operation == "get" {
		s.result(false)
	}
	if onPanic != nil {
		onPanic()
	}
}
