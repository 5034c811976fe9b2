// Package cache provides the fail-open cache service and key serialization
// used by the device read and write paths.
//
// # Overview
//
// The package exports three interfaces and their default implementations:
//
//   - Backend: a raw key-value client (sturdyc, Redis, noop) that reports errors
//   - Service: the fail-open surface the application talks to
//   - KeySerializer: builds stable positional keys such as device:{id}
//
// FailOpen adapts a Backend into a Service. It encodes values with msgpack,
// applies a default TTL, routes backend calls through a circuit breaker and
// converts every failure into a miss or a no-op after logging it.
//
// # Basic Usage
//
//	svc, err := cache.NewFailOpen(backend, cache.DefaultConfig(), cache.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	view, err := cache.GetOrFetch(ctx, svc, key, 0, func(ctx context.Context) (device.View, error) {
//		return inner.GetDeviceByID(ctx, id)
//	})
//
// GetOrFetch never stores the result of a failed fetch, so not-found
// outcomes are not cached.
//
// # Key Serialization
//
// The default serializer joins a namespace and parts with ":". String parts
// are query-escaped, nil parts render empty, and named string or integer
// types render their underlying value. Because no segment can contain a raw
// ':' or '*', a glob such as "devices:*" matches exactly the keys issued
// under that namespace.
//
// # Failure Semantics
//
// Get, Set, Remove and RemoveByPattern never return errors and never panic.
// An unavailable backend makes the cache behave as if it were empty. Ping is
// the exception: it reports backend errors for health checks.
package cache
