// Package config reads server and generator settings from environment
// variables. Each field names its variable and default in struct tags, and
// Load refuses to return a configuration that fails Validate.
package config

import (
	"strconv"
	"time"
)

// Config is the full set of settings, grouped by concern.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Limits    LimitsConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Generator GeneratorConfig
}

// ServerConfig covers the listener and its timeouts.
type ServerConfig struct {
	// Host to bind; empty or 0.0.0.0 listens on every interface
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port falls back to PORT for platforms that inject it
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request including the upload (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout closes idle keep-alive connections
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the drain of generations and connections on exit
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout cancels a handler's context after this long
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`
}

// LimitsConfig bounds concurrent parse-and-generate work.
type LimitsConfig struct {
	// MaxConcurrent is the maximum number of parallel transforms (default: 4)
	MaxConcurrent int `env:"GENERATE_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a free slot (default: 10s)
	MaxWaitTime time.Duration `env:"GENERATE_MAX_WAIT_TIME" default:"10s"`

	// Timeout is the maximum duration for one transform (default: 30s)
	Timeout time.Duration `env:"GENERATE_TIMEOUT" default:"30s"`
}

// RateLimitConfig sets per-address request budgets, counted per minute.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute applies to every route
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// GenerateLimit is requests per minute for the upload endpoints (default: 20)
	GenerateLimit int `env:"RATE_LIMIT_GENERATE" default:"20"`
}

// SecurityConfig covers proxy trust, response headers and API keys.
type SecurityConfig struct {
	// TrustedProxies lists CIDRs or addresses whose forwarding headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards /api with X-API-Key or an Authorization bearer token
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	// Level: debug, info, warn or error
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format: text for people, json for log collectors
	Format string `env:"LOG_FORMAT" default:"text"`
}

// GeneratorConfig holds validation, selection and layout settings.
type GeneratorConfig struct {
	// ValidationMode is strict (ids exactly 1..N) or loose (any whole numbers) (default: strict)
	ValidationMode string `env:"GENERATOR_VALIDATION_MODE" default:"strict"`

	// RequireAnswer makes blank answer cells a validation error (default: true)
	RequireAnswer bool `env:"GENERATOR_REQUIRE_ANSWER" default:"true"`

	// FoldWidth narrows full-width digits in the identifier column (default: false)
	FoldWidth bool `env:"GENERATOR_FOLD_WIDTH" default:"false"`

	// RowsPerBlock is the default block height (default: 25)
	RowsPerBlock int `env:"GENERATOR_ROWS_PER_BLOCK" default:"25"`

	// MinRowsPerBlock and MaxRowsPerBlock bound user-supplied block heights (default: 5-100)
	MinRowsPerBlock int `env:"GENERATOR_MIN_ROWS_PER_BLOCK" default:"5"`
	MaxRowsPerBlock int `env:"GENERATOR_MAX_ROWS_PER_BLOCK" default:"100"`

	// DefaultCount is how many questions a new selection asks for (default: 10)
	DefaultCount int `env:"GENERATOR_DEFAULT_COUNT" default:"10"`

	// MaxReportedRows caps row numbers listed per diagnostic (default: 10)
	MaxReportedRows int `env:"GENERATOR_MAX_REPORTED_ROWS" default:"10"`

	// IngestEngine selects the .xlsx reader: excelize or stream (default: excelize)
	IngestEngine string `env:"GENERATOR_INGEST_ENGINE" default:"excelize"`

	// ProfilePath is an optional YAML sheet profile overriding labels and sizes
	ProfilePath string `env:"GENERATOR_PROFILE"`
}

// Addr joins Host and Port for http.Server.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
