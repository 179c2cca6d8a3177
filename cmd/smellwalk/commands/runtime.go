package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/smellwalk/pkg/config"
	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
	"github.com/Sumatoshi-tech/smellwalk/pkg/toolexec"
	"github.com/Sumatoshi-tech/smellwalk/pkg/version"
)

// Runtime carries what every stage of a command needs.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Runner  toolexec.Runner
	HTTP    *http.Client
	Metrics *observability.RunMetrics

	shutdown func(ctx context.Context) error
}

// newRuntime initializes telemetry and the instrumented tool runner.
func newRuntime(cfg *config.Config, mode observability.AppMode) (*Runtime, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.Repository = filepath.Base(cfg.Repository.Path)
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.PushgatewayURL = cfg.Telemetry.PushgatewayURL
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = parseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON

	if cfg.Telemetry.JobName != "" {
		obsCfg.JobName = cfg.Telemetry.JobName
	}

	if obsCfg.OTLPEndpoint == "" {
		obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		obsCfg.OTLPInsecure = obsCfg.OTLPInsecure || os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	calls, err := observability.NewCallMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	runner := toolexec.Instrumented(toolexec.NewExecRunner(providers.Logger), providers.Tracer, calls)

	return &Runtime{
		Config:  cfg,
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Runner:  runner,
		HTTP:    &http.Client{Transport: observability.NewTracingTransport(nil, providers.Tracer, calls)},
		Metrics: runMetrics,

		shutdown: providers.Shutdown,
	}, nil
}

// Close flushes telemetry. Errors are logged, never returned.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.shutdown == nil {
		return
	}

	err := rt.shutdown(context.WithoutCancel(ctx))
	if err != nil {
		rt.Logger.Warn("telemetry shutdown failed", "error", err)
	}
}
