package cache

import "time"

// DefaultTTL is applied to entries stored without an explicit TTL.
const DefaultTTL = 5 * time.Minute

// Config holds the fail-open service options.
type Config struct {
	// DefaultTTL is used when Set is called with a ttl <= 0.
	// Must be greater than 0. Default: 5m
	DefaultTTL time.Duration

	// OperationTimeout bounds every backend call. Zero disables the bound
	// and only the caller's context applies.
	OperationTimeout time.Duration

	// Breaker configures the circuit breaker in front of the backend.
	// When disabled every call reaches the backend.
	Breaker BreakerConfig
}

// BreakerConfig mirrors the gobreaker settings we expose.
type BreakerConfig struct {
	Enabled bool

	// ConsecutiveFailures trips the breaker once reached. Must be > 0 when enabled.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration

	// HalfOpenRequests is how many probes are let through while half-open.
	HalfOpenRequests uint32
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:       DefaultTTL,
		OperationTimeout: 500 * time.Millisecond,
		Breaker: BreakerConfig{
			Enabled:             true,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
			HalfOpenRequests:    1,
		},
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.DefaultTTL <= 0 {
		return &ConfigError{Field: "DefaultTTL", Message: "must be greater than 0"}
	}
	if c.OperationTimeout < 0 {
		return &ConfigError{Field: "OperationTimeout", Message: "must be non-negative"}
	}
	if c.Breaker.Enabled {
		if c.Breaker.ConsecutiveFailures == 0 {
			return &ConfigError{Field: "Breaker.ConsecutiveFailures", Message: "must be greater than 0"}
		}
		if c.Breaker.OpenTimeout < 0 {
			return &ConfigError{Field: "Breaker.OpenTimeout", Message: "must be non-negative"}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
