// Package config provides YAML/env configuration for partexpand.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
	"github.com/Sumatoshi-tech/partexpand/pkg/sink"
)

// Config is the top-level configuration struct for partexpand.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Expand    ExpandConfig    `mapstructure:"expand"    yaml:"expand"`
	Output    OutputConfig    `mapstructure:"output"    yaml:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ExpandConfig holds merge settings.
type ExpandConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	Validate bool   `mapstructure:"validate" yaml:"validate"`
}

// OutputConfig holds output encoding settings.
type OutputConfig struct {
	Format      string `mapstructure:"format"      yaml:"format"`
	Compression string `mapstructure:"compression" yaml:"compression"`
	// BufferSize is a human-readable byte size such as "64KiB".
	BufferSize string `mapstructure:"buffer_size" yaml:"buffer_size"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json"  yaml:"json"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"    yaml:"otlp_endpoint"`
	// OTLPHeaders is a "key=value,key=value" list sent with every export.
	// When empty, OTEL_EXPORTER_OTLP_HEADERS is used.
	OTLPHeaders     string `mapstructure:"otlp_headers"     yaml:"otlp_headers"`
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"    yaml:"otlp_insecure"`
}

// otlpHeadersEnv is the standard OpenTelemetry exporter headers variable.
const otlpHeadersEnv = "OTEL_EXPORTER_OTLP_HEADERS"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidFormat indicates an unsupported output.format.
	ErrInvalidFormat = errors.New("output.format must be lines or json")
	// ErrInvalidCompression indicates an unsupported output.compression.
	ErrInvalidCompression = errors.New("output.compression must be none or lz4")
	// ErrInvalidBufferSize indicates an unparsable or non-positive output.buffer_size.
	ErrInvalidBufferSize = errors.New("output.buffer_size must be a positive byte size")
	// ErrInvalidLogLevel indicates an unknown logging.level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
)

// Validate checks all fields for correctness.
func (c *Config) Validate() error {
	_, err := c.Strategy()
	if err != nil {
		return fmt.Errorf("expand.strategy: %w", err)
	}

	switch sink.Format(c.Output.Format) {
	case sink.FormatLines, sink.FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	switch sink.Compression(c.Output.Compression) {
	case sink.CompressionNone, sink.CompressionLZ4:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCompression, c.Output.Compression)
	}

	_, err = c.BufferBytes()
	if err != nil {
		return err
	}

	_, err = c.LogLevel()

	return err
}

// Strategy returns the configured merge strategy.
func (c *Config) Strategy() (partition.Strategy, error) {
	return partition.ParseStrategy(c.Expand.Strategy)
}

// BufferBytes parses output.buffer_size.
func (c *Config) BufferBytes() (int, error) {
	size, err := humanize.ParseBytes(c.Output.BufferSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBufferSize, err)
	}

	if size == 0 || size > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBufferSize, c.Output.BufferSize)
	}

	return int(size), nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// SinkOptions converts the output section into sink options.
func (c *Config) SinkOptions() (sink.Options, error) {
	size, err := c.BufferBytes()
	if err != nil {
		return sink.Options{}, err
	}

	return sink.Options{
		Format:      sink.Format(c.Output.Format),
		Compression: sink.Compression(c.Output.Compression),
		BufferSize:  size,
	}, nil
}

// ExportHeaders returns the parsed OTLP export headers, falling back to
// OTEL_EXPORTER_OTLP_HEADERS when telemetry.otlp_headers is empty.
func (c *Config) ExportHeaders() map[string]string {
	raw := c.Telemetry.OTLPHeaders
	if raw == "" {
		raw = os.Getenv(otlpHeadersEnv)
	}

	return observability.ParseOTLPHeaders(raw)
}
