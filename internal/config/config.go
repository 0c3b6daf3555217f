// Package config provides centralized configuration management for the
// cleaning service. It loads configuration from environment variables with
// sensible defaults, merges an optional YAML rules file, and validates all
// settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Clean    CleanConfig
	Rules    RulesConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 3m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"3m"`
}

// DatabaseConfig holds database connection settings. Without a URL runs are
// kept in memory only.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether runs should be persisted.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// CleanConfig holds run processing settings.
type CleanConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"CLEAN_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel runs (default: 4)
	MaxConcurrent int `env:"CLEAN_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a run slot (default: 30s)
	MaxWaitTime time.Duration `env:"CLEAN_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single run (default: 2m)
	Timeout time.Duration `env:"CLEAN_TIMEOUT" default:"2m"`

	// Workers bounds the parallel validation scan (default: 4)
	Workers int `env:"CLEAN_WORKERS" default:"4"`

	// CacheSize is the number of finished runs kept in memory (default: 128)
	CacheSize int `env:"CLEAN_CACHE_SIZE" default:"128"`

	// MissingMarkers lists extra cell texts read as missing values.
	// Empty cells are always missing.
	MissingMarkers []string `env:"CLEAN_MISSING_MARKERS" default:"NA,N/A,null,NULL,NaN,None"`

	// Delimiter is the CSV field separator (default: ,)
	Delimiter string `env:"CLEAN_DELIMITER" default:","`
}

// Comma returns the delimiter as a rune for the CSV reader.
func (c *CleanConfig) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}

// RulesConfig holds the default cleaning rules. Requests override them
// field by field.
type RulesConfig struct {
	// NullStrategy is drop, impute or none (default: impute)
	NullStrategy string `env:"RULES_NULL_STRATEGY" default:"impute"`

	// ImputeStrategy is constant, mean or mode (default: mean)
	ImputeStrategy string `env:"RULES_IMPUTE_STRATEGY" default:"mean"`

	// Placeholder is the constant fill value (default: unknown)
	Placeholder string `env:"RULES_PLACEHOLDER" default:"unknown"`

	// DuplicateStrategy is drop_all, keep_first, keep_last or none (default: keep_first)
	DuplicateStrategy string `env:"RULES_DUPLICATE_STRATEGY" default:"keep_first"`

	// File is an optional YAML file whose settings replace the values above
	// and may add a type mapping and compare columns.
	File string `env:"RULES_FILE"`

	file core.RuleSpec
}

// Spec returns the effective default rules.
func (c *RulesConfig) Spec() core.RuleSpec {
	base := core.RuleSpec{
		NullStrategy:      c.NullStrategy,
		ImputeStrategy:    c.ImputeStrategy,
		Placeholder:       c.Placeholder,
		DuplicateStrategy: c.DuplicateStrategy,
	}
	return base.Override(c.file)
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey rejects requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RateLimit is requests per minute per client IP; 0 disables (default: 60)
	RateLimit int `env:"RATE_LIMIT_PER_MINUTE" default:"60"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
