package config

// Expand defaults.
const (
	DefaultExpandStrategy = "scan"
	DefaultExpandValidate = false
)

// Output defaults.
const (
	DefaultOutputFormat      = "lines"
	DefaultOutputCompression = "none"
	DefaultOutputBufferSize  = "64KiB"
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)

// Telemetry defaults. An empty endpoint keeps telemetry providers no-op.
const (
	DefaultTelemetryOTLPEndpoint    = ""
	DefaultTelemetryOTLPInsecure    = false
	DefaultTelemetryOTLPHeaders     = ""
	DefaultTelemetryMetricsTextfile = ""
)
