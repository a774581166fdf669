package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Observance store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full server configuration, read from ALTAR_* variables.
type Config struct {
	Server     Server           `envPrefix:"ALTAR_"`
	Log        LogConfig        `envPrefix:"ALTAR_LOG_"`
	Catalog    CatalogConfig    `envPrefix:"ALTAR_CATALOG_"`
	Observance ObservanceConfig `envPrefix:"ALTAR_OBSERVANCE_"`
	Redis      RedisConfig      `envPrefix:"ALTAR_REDIS_"`
	Postgres   PostgresConfig   `envPrefix:"ALTAR_DATABASE_"`
	Kafka      KafkaConfig      `envPrefix:"ALTAR_KAFKA_"`
	Audit      AuditConfig      `envPrefix:"ALTAR_AUDIT_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// CatalogConfig locates the rule catalog. An empty path serves the embedded
// default catalog.
type CatalogConfig struct {
	Path     string        `env:"PATH"`
	Watch    bool          `env:"WATCH" envDefault:"false"`
	Debounce time.Duration `env:"DEBOUNCE" envDefault:"250ms"`
}

type ObservanceConfig struct {
	Backend string `env:"BACKEND" envDefault:"memory"`
	Points  int    `env:"POINTS" envDefault:"5"`
	// TTL is the expiry slack on Redis day markers.
	TTL time.Duration `env:"TTL" envDefault:"24h"`
}

// RedisConfig configures the Redis connection pool.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

type PostgresConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// KafkaConfig configures the audit sink. No brokers keeps audit in memory.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"altar.audit"`
	BufferSize int      `env:"AUDIT_BUFFER" envDefault:"1024"`
}

// AuditConfig bounds the in-process audit sink used when Kafka is not
// configured.
type AuditConfig struct {
	MemoryCapacity int `env:"MEMORY_CAPACITY" envDefault:"1024"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Observance.Backend = strings.ToLower(strings.TrimSpace(cfg.Observance.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects inconsistent combinations.
func (c Config) Validate() error {
	var errs []error
	switch c.Observance.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("ALTAR_REDIS_URL is required for the redis observance backend"))
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("ALTAR_DATABASE_URL is required for the postgres observance backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown observance backend %q", c.Observance.Backend))
	}
	if c.Observance.Points < 1 || c.Observance.Points > 100 {
		errs = append(errs, errors.New("ALTAR_OBSERVANCE_POINTS must be between 1 and 100"))
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		errs = append(errs, errors.New("ALTAR_CATALOG_WATCH requires ALTAR_CATALOG_PATH"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("ALTAR_REQUEST_TIMEOUT must be positive"))
	}
	if c.Audit.MemoryCapacity < 1 {
		errs = append(errs, errors.New("ALTAR_AUDIT_MEMORY_CAPACITY must be positive"))
	}
	if c.Kafka.BufferSize < 0 {
		errs = append(errs, errors.New("ALTAR_KAFKA_AUDIT_BUFFER must not be negative"))
	}
	return errors.Join(errs...)
}
