package cacheinfra

import (
	"context"
	"path"
	"time"

	"github.com/goliatone/go-device-cache/cache"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc cache adapter.
// It encapsulates the core sturdyc options needed for cache initialization.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is the upper bound on entry lifetime. Entries stored with a
	// longer TTL are still evicted after this duration.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	// Default: 10 (evict 10% of entries)
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                cache.DefaultTTL,
		EvictionPercentage: 10,
		EvictionInterval:   0, // Use default
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly to
// sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &cache.ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &cache.ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &cache.ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &cache.ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &cache.ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// entry carries a per-key expiry on top of the client wide TTL.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// SturdycBackend is an in-process cache.Backend on a sturdyc client.
type SturdycBackend struct {
	client *sturdyc.Client[entry]
	now    func() time.Time
}

var _ cache.Backend = (*SturdycBackend)(nil)

// NewSturdycBackend validates cfg and initializes a sturdyc client with it.
func NewSturdycBackend(cfg Config) (*SturdycBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycBackend{client: client, now: time.Now}, nil
}

// Get returns a copy of the stored bytes. Entries past their own expiry
// are deleted and reported as missing.
func (s *SturdycBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.client.Delete(key)
		return nil, false, nil
	}

	return append([]byte(nil), e.value...), true, nil
}

func (s *SturdycBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.client.Set(key, e)
	return nil
}

func (s *SturdycBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.client.Delete(key)
	return nil
}

// DeleteByPattern scans every key and removes the ones matching the glob.
func (s *SturdycBackend) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range s.client.ScanKeys() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if ok, _ := path.Match(pattern, key); ok {
			s.client.Delete(key)
			removed++
		}
	}
	return removed, nil
}

func (s *SturdycBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Size returns the number of entries held by the client.
func (s *SturdycBackend) Size() int {
	return s.client.Size()
}

func (s *SturdycBackend) Close() error {
	return nil
}
