package cache

import (
	"context"
	"time"
)

// KeySerializer builds a cache key from a namespace and ordered parts.
// It is responsible for producing stable keys across calls and processes.
type KeySerializer interface {
	SerializeKey(namespace string, parts ...any) string
}

// FetchFn is the function signature GetOrFetch expects when loading from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Backend is a raw cache client. Implementations report their failures;
// they are expected to be wrapped by a Service that swallows them.
type Backend interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes exactly one key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes every key matching a glob pattern and
	// returns how many were removed.
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Service is the fail-open surface used by the read and write paths.
// None of its cache operations return an error: a failing backend behaves
// like an empty cache.
type Service interface {
	// Get decodes the value stored under key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	// Set stores value under key. A ttl <= 0 selects the default TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Remove(ctx context.Context, key string)
	RemoveByPattern(ctx context.Context, pattern string)
	// Ping reports backend health for diagnostics. It is the only method
	// that returns backend errors.
	Ping(ctx context.Context) error
}

// Observer receives cache outcome events, typically for metrics.
type Observer interface {
	ObserveCacheResult(hit bool)
	ObserveCacheError(operation string)
}

// Get is a type-safe wrapper around Service.Get.
func Get[T any](ctx context.Context, service Service, key string) (T, bool) {
	var value T
	if !service.Get(ctx, key, &value) {
		var zero T
		return zero, false
	}
	return value, true
}

// GetOrFetch returns the cached value for key or loads it with fetchFn and
// stores it. Errors from fetchFn are returned and never cached.
func GetOrFetch[T any](ctx context.Context, service Service, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	if value, ok := Get[T](ctx, service, key); ok {
		return value, nil
	}

	value, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	service.Set(ctx, key, value, ttl)
	return value, nil
}
