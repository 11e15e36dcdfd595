// Package observability wires OpenTelemetry tracing and metrics and the slog
// logger shared by the codebridge CLI and MCP server.
package observability

import (
	"io"
	"log/slog"
	"os"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// AppMode is how the binary was launched.
type AppMode string

// Launch modes.
const (
	ModeCLI AppMode = "cli"
	ModeMCP AppMode = "mcp"
)

const (
	defaultServiceName     = "codebridge"
	defaultShutdownTimeout = 5 * time.Second

	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
)

// ServiceInfo identifies the process in resources and log records.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	Mode        AppMode
}

// Export addresses an OTLP gRPC collector. An empty endpoint disables export.
type Export struct {
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Enabled reports whether spans and metrics leave the process.
func (e Export) Enabled() bool {
	return e.Endpoint != ""
}

// WithEnvFallback fills unset fields from the standard OTEL_EXPORTER_OTLP_*
// variables.
func (e Export) WithEnvFallback() Export {
	if e.Endpoint == "" {
		e.Endpoint = os.Getenv(envOTLPEndpoint)
	}

	if e.Headers == nil {
		e.Headers = ParseOTLPHeaders(os.Getenv(envOTLPHeaders))
	}

	if !e.Insecure {
		e.Insecure = os.Getenv(envOTLPInsecure) == "true"
	}

	return e
}

// Sampling selects which traces are recorded.
type Sampling struct {
	// Always records every span and overrides OTEL_TRACES_SAMPLER.
	Always bool
	// Ratio samples root spans when positive and no sampler is set in the
	// environment.
	Ratio float64
}

// LogSettings shape the process logger.
type LogSettings struct {
	Level slog.Level
	JSON  bool
	// Output receives records; nil means stderr.
	Output io.Writer
}

// Config is the telemetry setup of one codebridge process.
type Config struct {
	Service  ServiceInfo
	Export   Export
	Sampling Sampling
	Log      LogSettings

	// MetricReader is attached next to the OTLP exporter and enables the SDK
	// meter provider on its own. The MCP server passes its Prometheus reader.
	MetricReader sdkmetric.Reader

	ShutdownTimeout time.Duration
}

// DefaultConfig is a CLI process logging at info level with export disabled.
func DefaultConfig() Config {
	return Config{
		Service:         ServiceInfo{Name: defaultServiceName, Mode: ModeCLI},
		Log:             LogSettings{Level: slog.LevelInfo},
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// ParseLogLevel maps a level name to a slog level. Unknown names yield info.
func ParseLogLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
