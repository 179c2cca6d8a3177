package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName = "smellwalk"
	meterName  = "smellwalk"

	// envTracesSampler selects a sampler in the SDK itself; when set, the
	// configured ratio is ignored.
	envTracesSampler = "OTEL_TRACES_SAMPLER"
)

// Providers holds the telemetry of one smellwalk command.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// Shutdown pushes the run's metrics when a Pushgateway is configured,
	// then flushes traces and metrics. Call it once, before exit.
	Shutdown func(ctx context.Context) error
}

// Init sets up tracing, metrics and logging for a command and installs the
// tracer provider, meter provider and W3C propagators globally. Spans are
// exported only with an OTLP endpoint; metrics with an OTLP endpoint or a
// Pushgateway. Otherwise no-op providers are used.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return Providers{}, fmt.Errorf("build otel resource: %w", err)
	}

	target := otlpTarget{endpoint: cfg.OTLPEndpoint, insecure: cfg.OTLPInsecure, headers: cfg.OTLPHeaders}

	tp, flushTraces, err := newTracerProvider(ctx, cfg, target, res)
	if err != nil {
		return Providers{}, err
	}

	mp, flushMetrics, err := newMeterProvider(ctx, cfg, target, res)
	if err != nil {
		return Providers{}, errors.Join(err, flushTraces(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeoutSec * time.Second
	}

	return Providers{
		Tracer: tp.Tracer(tracerName),
		Meter:  mp.Meter(meterName),
		Logger: newLogger(cfg),
		Shutdown: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			// Metrics go first: the push is the only record a batch run leaves.
			return errors.Join(flushMetrics(ctx), flushTraces(ctx))
		},
	}, nil
}

func resourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	if cfg.Repository != "" {
		attrs = append(attrs, attribute.String("smellwalk.repository", cfg.Repository))
	}

	return attrs
}

// otlpTarget is the collector both OTLP exporters send to.
type otlpTarget struct {
	endpoint string
	insecure bool
	headers  map[string]string
}

func (t otlpTarget) enabled() bool {
	return t.endpoint != ""
}

func (t otlpTarget) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.endpoint)}

	if t.insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(t.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(t.headers))
	}

	return opts
}

func (t otlpTarget) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(t.endpoint)}

	if t.insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(t.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(t.headers))
	}

	return opts
}

type flushFunc func(ctx context.Context) error

func noFlush(context.Context) error { return nil }

func newTracerProvider(
	ctx context.Context, cfg Config, target otlpTarget, res *resource.Resource,
) (trace.TracerProvider, flushFunc, error) {
	if !target.enabled() {
		return nooptrace.NewTracerProvider(), noFlush, nil
	}

	exporter, err := otlptracegrpc.New(ctx, target.traceOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	var filterLogger *slog.Logger
	if cfg.DebugTrace {
		filterLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(NewAttributeFilter(sdktrace.NewBatchSpanProcessor(exporter), filterLogger)),
		sdktrace.WithResource(res),
	}

	if sampler, ok := configuredSampler(cfg); ok {
		opts = append(opts, sdktrace.WithSampler(sampler))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	return tp, tp.Shutdown, nil
}

// configuredSampler returns the sampler cfg asks for. It reports false when
// OTEL_TRACES_SAMPLER is set, leaving the choice to the SDK.
func configuredSampler(cfg Config) (sdktrace.Sampler, bool) {
	switch {
	case cfg.DebugTrace:
		return sdktrace.AlwaysSample(), true
	case os.Getenv(envTracesSampler) != "":
		return nil, false
	case cfg.SampleRatio > 0 && cfg.SampleRatio < 1:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio)), true
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), true
	}
}

func newMeterProvider(
	ctx context.Context, cfg Config, target otlpTarget, res *resource.Resource,
) (metric.MeterProvider, flushFunc, error) {
	if !target.enabled() && cfg.PushgatewayURL == "" {
		return noopmetric.NewMeterProvider(), noFlush, nil
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if target.enabled() {
		exporter, err := otlpmetricgrpc.New(ctx, target.metricOptions()...)
		if err != nil {
			return nil, nil, fmt.Errorf("create metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	var pusher *push.Pusher

	if cfg.PushgatewayURL != "" {
		reader, registry, err := newPrometheusReader()
		if err != nil {
			return nil, nil, err
		}

		opts = append(opts, sdkmetric.WithReader(reader))
		pusher = newPusher(cfg, registry)
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	flush := func(ctx context.Context) error {
		var pushErr error

		if pusher != nil {
			if err := pusher.PushContext(ctx); err != nil {
				pushErr = fmt.Errorf("push metrics: %w", err)
			}
		}

		return errors.Join(pushErr, mp.Shutdown(ctx))
	}

	return mp, flush, nil
}

func newLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// ParseOTLPHeaders parses "key=value,key=value" OTLP headers. Pairs without
// "=" are skipped; nil is returned when nothing remains.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}
