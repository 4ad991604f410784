// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/store"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Layout   LayoutConfig
	Pipeline PipelineConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Store    StoreConfig
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

	// WriteTimeout is the maximum duration for writing response (default: 0, bounded by UPLOAD_TIMEOUT)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-run requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// LayoutConfig locates the header rows of the monthly report. Rows are
// 1-based, as shown in a spreadsheet.
type LayoutConfig struct {
	ProducerRow  int    `env:"LAYOUT_PRODUCER_ROW" default:"6"`
	PackageRow   int    `env:"LAYOUT_PACKAGE_ROW" default:"7"`
	BrandRow     int    `env:"LAYOUT_BRAND_ROW" default:"52"`
	HoldingRow   int    `env:"LAYOUT_HOLDING_ROW" default:"53"`
	DataStartRow int    `env:"LAYOUT_DATA_START_ROW" default:"8"`
	Marker       string `env:"LAYOUT_MARKER" default:"PROVINSI"`
}

// PipelineConfig holds run behaviour.
type PipelineConfig struct {
	// ReplaceMode drops history rows of the incoming period before appending (default: true)
	ReplaceMode bool `env:"PIPELINE_REPLACE_MODE" default:"true"`

	// Country is written to every current-period row (default: Domestik)
	Country string `env:"PIPELINE_COUNTRY" default:"Domestik"`

	// DefaultIsland is used for regions missing from the island lookup (default: Lainnya)
	DefaultIsland string `env:"PIPELINE_DEFAULT_ISLAND" default:"Lainnya"`

	// IncludeMapping appends Segment and Area AP to the result (default: false)
	IncludeMapping bool `env:"PIPELINE_INCLUDE_MAPPING" default:"false"`
}

// UploadConfig holds upload and run limits.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size per uploaded file in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of parallel pipeline runs (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a run slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single run (default: 5m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the run endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the /api routes with an X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// StoreConfig selects an optional history store.
type StoreConfig struct {
	// Driver is "", "postgres" or "sqlite". Empty means history comes only from uploads.
	Driver string `env:"STORE_DRIVER"`

	// URL is the connection string or SQLite file path
	URL string `env:"STORE_URL" envAlt:"DATABASE_URL"`

	// WriteBack stores each run's current period after a successful run (default: false)
	WriteBack bool `env:"STORE_WRITE_BACK" default:"false"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"STORE_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"STORE_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"STORE_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"STORE_MAX_CONN_IDLE_TIME" default:"30m"`
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

// HeaderLayout converts the 1-based rows to the parser's 0-based layout.
func (c *LayoutConfig) HeaderLayout() core.HeaderLayout {
	return core.HeaderLayout{
		ProducerRow:  c.ProducerRow - 1,
		PackageRow:   c.PackageRow - 1,
		BrandRow:     c.BrandRow - 1,
		HoldingRow:   c.HoldingRow - 1,
		DataStartRow: c.DataStartRow - 1,
		Marker:       c.Marker,
	}
}

// Options returns the pipeline options for this configuration.
func (c *Config) Options() core.Options {
	return core.Options{
		Layout:         c.Layout.HeaderLayout(),
		Replace:        c.Pipeline.ReplaceMode,
		Country:        c.Pipeline.Country,
		DefaultIsland:  c.Pipeline.DefaultIsland,
		IncludeMapping: c.Pipeline.IncludeMapping,
	}
}

// DriverConfig returns the store driver settings.
func (c *StoreConfig) DriverConfig() store.Config {
	return store.Config{
		Driver:          c.Driver,
		URL:             c.URL,
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
	}
}
