// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Import   ImportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	Port int `env:"SERVER_PORT" envDefault:"8000"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"30s"`
}

// StorageConfig selects and configures the salary store.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres" (default: sqlite)
	Driver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`

	// SQLitePath is the database file for the sqlite driver (default: data/salaries.db)
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/salaries.db"`

	// DatabaseURL is the PostgreSQL connection string, required for the postgres driver.
	// DB_URL is accepted as a fallback.
	DatabaseURL string `env:"DATABASE_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" envDefault:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`

	// ConnectTimeout bounds opening and pinging the store (default: 5s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	// AutoMigrate creates the schema when the server opens the store.
	// Imports always migrate. Off by default so a server without imported
	// data reports the store as unavailable.
	AutoMigrate bool `env:"STORAGE_AUTO_MIGRATE" envDefault:"false"`
}

// CacheConfig holds the optional Redis lookup cache settings.
type CacheConfig struct {
	// RedisURL enables the cache when set, e.g. redis://localhost:6379/0
	RedisURL string `env:"REDIS_URL"`

	// TTL is how long cached lookups live (default: 10m)
	TTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	// Prefix namespaces every cache key (default: tarif:v1)
	Prefix string `env:"CACHE_PREFIX" envDefault:"tarif:v1"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"120"`

	// Burst is the number of requests allowed at once (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// ImportConfig holds the defaults applied to imports that do not set them.
type ImportConfig struct {
	Delimiter   string `env:"IMPORT_DELIMITER" envDefault:";"`
	GradeColumn string `env:"IMPORT_GRADE_COLUMN" envDefault:"Entgeltgruppe"`
	Region      string `env:"IMPORT_REGION" envDefault:"ALL"`
	ValidFrom   string `env:"IMPORT_VALID_FROM" envDefault:"2025-02-01"`
	Encoding    string `env:"IMPORT_ENCODING" envDefault:"utf-8"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
