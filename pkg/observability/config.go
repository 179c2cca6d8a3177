// Package observability provides OpenTelemetry tracing, metrics and
// structured logging for smellwalk runs.
package observability

import "log/slog"

// AppMode identifies which command the binary is running.
type AppMode string

const (
	// ModeRun is a full correlation run.
	ModeRun AppMode = "run"
	// ModeMine only mines refactorings.
	ModeMine AppMode = "mine"
)

const (
	defaultServiceName        = "smellwalk"
	defaultJobName            = "smellwalk"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "ci", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// Repository names the analysed repository in the resource and in the
	// Pushgateway grouping key.
	Repository string

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// PushgatewayURL, when set, makes Shutdown push the run's metrics to a
	// Prometheus Pushgateway.
	PushgatewayURL string

	// JobName is the Pushgateway job label.
	JobName string

	// DebugTrace forces 100% trace sampling and logs blocked span attributes.
	DebugTrace bool

	// SampleRatio is the trace sampling ratio (0.0 to 1.0) when DebugTrace is false.
	// Zero samples every root span.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeRun,
		JobName:            defaultJobName,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
