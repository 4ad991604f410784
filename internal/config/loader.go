package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup; an empty result means unset.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Primary name first, then the alternate
		value := getenv(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = getenv(alt)
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var result []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Layout
	rows := []struct {
		name string
		row  int
	}{
		{"LAYOUT_PRODUCER_ROW", c.Layout.ProducerRow},
		{"LAYOUT_PACKAGE_ROW", c.Layout.PackageRow},
		{"LAYOUT_BRAND_ROW", c.Layout.BrandRow},
		{"LAYOUT_HOLDING_ROW", c.Layout.HoldingRow},
		{"LAYOUT_DATA_START_ROW", c.Layout.DataStartRow},
	}
	for _, r := range rows {
		if r.row < 1 {
			errs = append(errs, fmt.Sprintf("%s (%d) must be >= 1", r.name, r.row))
		} else if r.name != "LAYOUT_DATA_START_ROW" && r.row == c.Layout.DataStartRow {
			errs = append(errs, fmt.Sprintf("%s (%d) must differ from LAYOUT_DATA_START_ROW", r.name, r.row))
		}
	}
	if strings.TrimSpace(c.Layout.Marker) == "" {
		errs = append(errs, "LAYOUT_MARKER must not be empty")
	}

	// Pipeline
	if strings.TrimSpace(c.Pipeline.Country) == "" {
		errs = append(errs, "PIPELINE_COUNTRY must not be empty")
	}

	// Upload
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if c.Upload.Timeout <= 0 {
		errs = append(errs, "UPLOAD_TIMEOUT must be positive")
	}

	// Rate limit
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Store
	switch c.Store.Driver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER (%q) must be one of: postgres, sqlite, or empty", c.Store.Driver))
	}
	if c.Store.Driver != "" && c.Store.URL == "" {
		errs = append(errs, "STORE_URL is required when STORE_DRIVER is set")
	}
	if c.Store.Driver == "" && c.Store.WriteBack {
		errs = append(errs, "STORE_WRITE_BACK requires STORE_DRIVER")
	}
	if c.Store.WriteBack && !c.Pipeline.ReplaceMode {
		// Write-back replaces the period; in append mode the result would
		// count the period twice while the store holds it once.
		errs = append(errs, "STORE_WRITE_BACK requires PIPELINE_REPLACE_MODE=true")
	}
	if c.Store.MaxConns < c.Store.MinConns {
		errs = append(errs, fmt.Sprintf("STORE_MAX_CONNS (%d) must be >= STORE_MIN_CONNS (%d)",
			c.Store.MaxConns, c.Store.MinConns))
	}
	if c.Store.MinConns < 0 {
		errs = append(errs, "STORE_MIN_CONNS must be non-negative")
	}

	// Security
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.Logging.Format)) {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The store URL is masked.
func (c *Config) String() string {
	storeURL := ""
	if c.Store.URL != "" {
		storeURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Layout: {Producer: %d, Package: %d, Brand: %d, Holding: %d, DataStart: %d, Marker: %q}, ",
		c.Layout.ProducerRow, c.Layout.PackageRow, c.Layout.BrandRow, c.Layout.HoldingRow,
		c.Layout.DataStartRow, c.Layout.Marker)
	fmt.Fprintf(&b, "Pipeline: {Replace: %v, IncludeMapping: %v}, ",
		c.Pipeline.ReplaceMode, c.Pipeline.IncludeMapping)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Store: {Driver: %q, URL: %q, WriteBack: %v}, ",
		c.Store.Driver, storeURL, c.Store.WriteBack)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
