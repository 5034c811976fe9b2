// Package config loads the devicesvc configuration from YAML with
// DEVICESVC_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEVICESVC_"

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Cache backends.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig selects the device store.
type DatabaseConfig struct {
	// Driver is memory, sqlite or postgres.
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`

	// Seed inserts the demo fleet into an empty store at startup.
	Seed bool `yaml:"seed"`
}

// CacheConfig selects and tunes the read cache.
type CacheConfig struct {
	// Backend is redis, memory or none.
	Backend             string        `yaml:"backend"`
	DefaultTTL          time.Duration `yaml:"default_ttl"`
	OperationTimeout    time.Duration `yaml:"operation_timeout"`
	InvalidationTimeout time.Duration `yaml:"invalidation_timeout"`
	Redis               RedisConfig   `yaml:"redis"`
	Memory              MemoryConfig  `yaml:"memory"`
	Breaker             BreakerConfig `yaml:"breaker"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	KeyPrefix    string        `yaml:"key_prefix"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type MemoryConfig struct {
	Capacity           int `yaml:"capacity"`
	NumShards          int `yaml:"num_shards"`
	EvictionPercentage int `yaml:"eviction_percentage"`
}

type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
	HalfOpenRequests    uint32        `yaml:"half_open_requests"`
}

// AuthConfig configures bearer token checks on the device API.
type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development bool   `yaml:"development"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Insecure    bool    `yaml:"insecure"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when no file is given: an
// in-memory store with the demo fleet and an in-process cache.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       DriverMemory,
			MaxOpenConns: 10,
			AutoMigrate:  true,
			Seed:         true,
		},
		Cache: CacheConfig{
			Backend:             CacheMemory,
			DefaultTTL:          5 * time.Minute,
			OperationTimeout:    500 * time.Millisecond,
			InvalidationTimeout: 2 * time.Second,
			Redis: RedisConfig{
				Addr:         "localhost:6379",
				KeyPrefix:    "devicesvc:",
				DialTimeout:  2 * time.Second,
				ReadTimeout:  500 * time.Millisecond,
				WriteTimeout: 500 * time.Millisecond,
			},
			Memory: MemoryConfig{
				Capacity:           10000,
				NumShards:          256,
				EvictionPercentage: 10,
			},
			Breaker: BreakerConfig{
				Enabled:             true,
				ConsecutiveFailures: 5,
				OpenTimeout:         30 * time.Second,
				HalfOpenRequests:    1,
			},
		},
		Auth: AuthConfig{
			Issuer:   "devicesvc",
			Audience: "devicesvc-api",
			TokenTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4317",
			ServiceName: "devicesvc",
			SampleRatio: 1,
			Insecure:    true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "devicesvc",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from lookup, which has the os.LookupEnv signature.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("SERVER_HOST", &cfg.Server.Host)
	integer("SERVER_PORT", &cfg.Server.Port)

	str("DATABASE_DRIVER", &cfg.Database.Driver)
	str("DATABASE_DSN", &cfg.Database.DSN)
	boolean("DATABASE_AUTO_MIGRATE", &cfg.Database.AutoMigrate)
	boolean("DATABASE_SEED", &cfg.Database.Seed)

	str("CACHE_BACKEND", &cfg.Cache.Backend)
	duration("CACHE_DEFAULT_TTL", &cfg.Cache.DefaultTTL)
	str("REDIS_ADDR", &cfg.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	integer("REDIS_DB", &cfg.Cache.Redis.DB)

	boolean("AUTH_ENABLED", &cfg.Auth.Enabled)
	str("JWT_SECRET", &cfg.Auth.Secret)

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	boolean("TRACING_ENABLED", &cfg.Tracing.Enabled)
	str("TRACING_ENDPOINT", &cfg.Tracing.Endpoint)

	boolean("METRICS_ENABLED", &cfg.Metrics.Enabled)

	return errors.Join(errs...)
}

const minSecretLength = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must be non-negative")
	}

	switch strings.ToLower(c.Database.Driver) {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for "+c.Database.Driver)
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of memory, sqlite, postgres", c.Database.Driver))
	}

	switch strings.ToLower(c.Cache.Backend) {
	case CacheNone:
	case CacheMemory, CacheRedis:
		if c.Cache.DefaultTTL <= 0 {
			errs = append(errs, "cache.default_ttl must be greater than 0")
		}
		if c.Cache.InvalidationTimeout <= 0 {
			errs = append(errs, "cache.invalidation_timeout must be greater than 0")
		}
		if strings.EqualFold(c.Cache.Backend, CacheRedis) && c.Cache.Redis.Addr == "" {
			errs = append(errs, "cache.redis.addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend %q is not one of redis, memory, none", c.Cache.Backend))
	}

	if c.Auth.Enabled {
		if len(c.Auth.Secret) < minSecretLength {
			errs = append(errs, fmt.Sprintf("auth.secret must be at least %d characters (set %sJWT_SECRET)", minSecretLength, EnvPrefix))
		}
		if c.Auth.TokenTTL <= 0 {
			errs = append(errs, "auth.token_ttl must be greater than 0")
		}
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1) {
		errs = append(errs, "tracing.sample_ratio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
