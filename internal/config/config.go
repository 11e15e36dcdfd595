// Package config loads codebridge settings from .codebridge.yaml, the
// environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
)

// Default values.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = FormatText
	DefaultMaxInputSize = "8MB"
	DefaultTreeCache    = 64
	DefaultSeed         = 0
	DefaultIDPrefix     = ""
	DefaultSampleRatio  = 0.0
	DefaultMetricsAddr  = ""
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the top-level configuration struct for codebridge.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	Projection ProjectionConfig `mapstructure:"projection"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	MCP        MCPConfig        `mapstructure:"mcp"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RulesConfig narrows the default rule set.
type RulesConfig struct {
	// Disabled lists rule keys to leave out, e.g. "class-to-interface".
	Disabled []string `mapstructure:"disabled"`
}

// IsDisabled reports whether the rule with key was disabled.
func (r RulesConfig) IsDisabled(key string) bool {
	return slices.Contains(r.Disabled, key)
}

// LimitsConfig bounds inputs accepted over the CLI and MCP surfaces.
type LimitsConfig struct {
	MaxInputSize string `mapstructure:"max_input_size"`
	// TreeCache is the number of decoded trees kept between calls.
	TreeCache int `mapstructure:"tree_cache"`
}

// MaxInputBytes parses MaxInputSize; zero means unlimited.
func (l LimitsConfig) MaxInputBytes() (uint64, error) {
	if l.MaxInputSize == "" || l.MaxInputSize == "0" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(l.MaxInputSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxInputSize, err)
	}

	return n, nil
}

// ProjectionConfig controls graph identifiers.
type ProjectionConfig struct {
	Seed     int    `mapstructure:"seed"`
	IDPrefix string `mapstructure:"id_prefix"`
}

// TelemetryConfig mirrors the OTLP knobs of the observability package.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	// MetricsAddr serves /metrics, /healthz and /readyz when non-empty.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Sentinel errors for configuration validation.
var (
	ErrInvalidLogLevel     = errors.New("logging.level must be one of debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("logging.format must be text or json")
	ErrInvalidMaxInputSize = errors.New("limits.max_input_size is not a byte size")
	ErrInvalidSeed         = errors.New("projection.seed must be non-negative")
	ErrInvalidSampleRatio  = errors.New("telemetry.sample_ratio must be between 0 and 1")
	ErrInvalidTreeCache    = errors.New("limits.tree_cache must be non-negative")
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if !slices.Contains(logLevels, c.Logging.Level) {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		return ErrInvalidLogFormat
	}

	_, err := c.Limits.MaxInputBytes()
	if err != nil {
		return err
	}

	if c.Limits.TreeCache < 0 {
		return ErrInvalidTreeCache
	}

	if c.Projection.Seed < 0 {
		return ErrInvalidSeed
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Limits:  LimitsConfig{MaxInputSize: DefaultMaxInputSize, TreeCache: DefaultTreeCache},
		Projection: ProjectionConfig{
			Seed:     DefaultSeed,
			IDPrefix: DefaultIDPrefix,
		},
		Telemetry: TelemetryConfig{SampleRatio: DefaultSampleRatio},
		MCP:       MCPConfig{MetricsAddr: DefaultMetricsAddr},
	}
}
