package cacheinfra

import (
	"context"
	"time"

	"github.com/goliatone/go-device-cache/cache"
)

// NoopBackend stores nothing. Every read is a miss.
type NoopBackend struct{}

var _ cache.Backend = NoopBackend{}

func (NoopBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NoopBackend) Delete(ctx context.Context, key string) error { return nil }

func (NoopBackend) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, nil
}

func (NoopBackend) Ping(ctx context.Context) error { return nil }

func (NoopBackend) Close() error { return nil }
