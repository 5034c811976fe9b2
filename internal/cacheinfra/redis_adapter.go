package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-device-cache/cache"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key, e.g. "devicesvc:". It is applied to
	// patterns as well, so invalidation never reaches foreign keys.
	KeyPrefix string

	// ScanCount is the COUNT hint passed to SCAN. Default: 100
	ScanCount int64

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// DefaultRedisConfig returns a RedisConfig for a local server.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "devicesvc:",
		ScanCount:    100,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return &cache.ConfigError{Field: "Addr", Message: "cannot be empty"}
	}
	if c.DB < 0 {
		return &cache.ConfigError{Field: "DB", Message: "must be non-negative"}
	}
	if c.ScanCount < 0 {
		return &cache.ConfigError{Field: "ScanCount", Message: "must be non-negative"}
	}
	return nil
}

// RedisBackend is a cache.Backend on go-redis. Pattern deletion walks the
// keyspace with SCAN and deletes matches in batches.
type RedisBackend struct {
	client    redis.UniversalClient
	prefix    string
	scanCount int64
}

var _ cache.Backend = (*RedisBackend)(nil)

// NewRedisBackend dials nothing up front; connection errors surface on use.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	return NewRedisBackendWithClient(client, cfg.KeyPrefix, cfg.ScanCount), nil
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(client redis.UniversalClient, prefix string, scanCount int64) *RedisBackend {
	if scanCount <= 0 {
		scanCount = 100
	}
	return &RedisBackend{client: client, prefix: prefix, scanCount: scanCount}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// DeleteByPattern collects every key SCAN MATCH returns for the prefixed
// pattern, then deletes them in batches of scanCount. The sweep finishes
// before the first DEL so the cursor never walks a keyspace it is mutating.
func (r *RedisBackend) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	iter := r.client.Scan(ctx, 0, r.prefix+pattern, r.scanCount).Iterator()

	seen := make(map[string]struct{})
	var keys []string
	for iter.Next(ctx) {
		key := iter.Val()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for start := 0; start < len(keys); start += int(r.scanCount) {
		end := min(start+int(r.scanCount), len(keys))
		n, err := r.client.Del(ctx, keys[start:end]...).Result()
		removed += int(n)
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
