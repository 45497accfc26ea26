package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/testsheet/internal/logging"
)

// Load builds the configuration from the process environment, filling unset
// variables from their defaults, and validates the result.
func Load() (*Config, error) {
	return load(os.Getenv)
}

// Default returns the configuration made of tag defaults alone.
func Default() *Config {
	cfg, err := load(func(string) string { return "" })
	if err != nil {
		panic(fmt.Sprintf("config: defaults are invalid: %v", err))
	}
	return cfg
}

// MustLoad is Load for main functions that cannot continue without config.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if err := decode(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// envField is one struct field tagged with env.
type envField struct {
	name, alt, fallback string
	required            bool
	dst                 reflect.Value
}

// lookup returns the primary variable, then the alternate, then the default.
func (f envField) lookup(getenv func(string) string) (string, error) {
	if v := getenv(f.name); v != "" {
		return v, nil
	}
	if f.alt != "" {
		if v := getenv(f.alt); v != "" {
			return v, nil
		}
	}
	if f.required {
		return "", fmt.Errorf("required environment variable %s is not set", f.name)
	}
	return f.fallback, nil
}

// fields flattens nested config sections into their tagged leaves.
func fields(v reflect.Value) []envField {
	var out []envField
	t := v.Type()
	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			out = append(out, fields(fv)...)
			continue
		}
		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		out = append(out, envField{
			name:     name,
			alt:      sf.Tag.Get("envAlt"),
			fallback: sf.Tag.Get("default"),
			required: sf.Tag.Get("required") == "true",
			dst:      fv,
		})
	}
	return out
}

// decode assigns every field and reports all bad variables together.
func decode(v reflect.Value, getenv func(string) string) error {
	var errs []error
	for _, f := range fields(v) {
		raw, err := f.lookup(getenv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raw == "" {
			continue
		}
		if err := assign(f.dst, raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", f.name, raw, err))
		}
	}
	return errors.Join(errs...)
}

// assign parses raw into dst according to dst's type.
func assign(dst reflect.Value, raw string) error {
	if dst.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		dst.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		dst.SetBool(b)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", dst.Type().Elem().Kind())
		}
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		dst.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type: %s", dst.Kind())
	}
	return nil
}

// problems accumulates validation failures.
type problems []string

func (p *problems) require(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	var p problems
	c.Server.check(&p)
	c.checkLimits(&p)
	c.Security.check(&p)
	c.Logging.check(&p)
	c.Generator.check(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (s *ServerConfig) check(p *problems) {
	p.require(s.Port > 0 && s.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", s.Port)
	p.require(s.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.require(s.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")
}

func (c *Config) checkLimits(p *problems) {
	p.require(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	p.require(c.Limits.MaxConcurrent > 0, "GENERATE_MAX_CONCURRENT must be positive")
	p.require(c.Limits.MaxWaitTime > 0, "GENERATE_MAX_WAIT_TIME must be positive")
	p.require(c.Limits.Timeout > 0, "GENERATE_TIMEOUT must be positive")
	if c.Rate.Enabled {
		p.require(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		p.require(c.Rate.GenerateLimit > 0, "RATE_LIMIT_GENERATE must be positive when rate limiting is enabled")
	}
}

func (s *SecurityConfig) check(p *problems) {
	p.require(!s.RequireAPIKey || len(s.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
}

func (l *LoggingConfig) check(p *problems) {
	_, err := logging.ParseLevel(l.Level)
	p.require(err == nil && l.Level != "", "LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level)
	p.require(logging.ValidFormat(l.Format), "LOG_FORMAT (%q) must be one of: text, json", l.Format)
}

func (g *GeneratorConfig) check(p *problems) {
	p.require(oneOf(g.ValidationMode, "strict", "loose"),
		"GENERATOR_VALIDATION_MODE (%q) must be one of: strict, loose", g.ValidationMode)
	p.require(oneOf(g.IngestEngine, "excelize", "stream"),
		"GENERATOR_INGEST_ENGINE (%q) must be one of: excelize, stream", g.IngestEngine)
	p.require(g.MinRowsPerBlock > 0 && g.MinRowsPerBlock <= g.MaxRowsPerBlock,
		"GENERATOR_MIN_ROWS_PER_BLOCK (%d) must be positive and <= GENERATOR_MAX_ROWS_PER_BLOCK (%d)",
		g.MinRowsPerBlock, g.MaxRowsPerBlock)
	p.require(g.RowsPerBlock >= g.MinRowsPerBlock && g.RowsPerBlock <= g.MaxRowsPerBlock,
		"GENERATOR_ROWS_PER_BLOCK (%d) must be within %d-%d", g.RowsPerBlock, g.MinRowsPerBlock, g.MaxRowsPerBlock)
	p.require(g.DefaultCount > 0, "GENERATOR_DEFAULT_COUNT must be positive")
	p.require(g.MaxReportedRows >= 0, "GENERATOR_MAX_REPORTED_ROWS must be non-negative")
}

// String renders the config for startup logs with API keys masked.
func (c *Config) String() string {
	g := c.Generator
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, Upload: {MaxFileSize: %d}, "+
		"Limits: {MaxConcurrent: %d, Timeout: %s}, Rate: {Enabled: %v, RequestsPerMinute: %d}, "+
		"Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, Logging: {Level: %q, Format: %q}, "+
		"Generator: {Mode: %q, RowsPerBlock: %d, Engine: %q, Profile: %q}}",
		c.Server.Host, c.Server.Port, c.Upload.MaxFileSize,
		c.Limits.MaxConcurrent, c.Limits.Timeout, c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Logging.Level, c.Logging.Format,
		g.ValidationMode, g.RowsPerBlock, g.IngestEngine, g.ProfilePath)
}
