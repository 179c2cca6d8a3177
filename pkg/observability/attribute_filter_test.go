package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
)

func newFilteredProvider(logger *slog.Logger) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	filter := observability.NewAttributeFilter(sdktrace.NewSimpleSpanProcessor(exporter), logger)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(filter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return tp, exporter
}

func spanAttrMap(span tracetest.SpanStub) map[string]any {
	out := make(map[string]any, len(span.Attributes))
	for _, kv := range span.Attributes {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}

	return out
}

func TestAttributeFilter_AllowsRunAttributes(t *testing.T) {
	t.Parallel()

	tp, exporter := newFilteredProvider(nil)

	_, span := tp.Tracer("test").Start(context.Background(), "smellwalk.commit")
	span.SetAttributes(
		attribute.String("commit.hash", "a1b2c3"),
		attribute.Int("smellwalk.commits", 12),
		attribute.String("tool.name", "java"),
		attribute.String("error.type", "timeout"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, "a1b2c3", attrs["commit.hash"])
	assert.Equal(t, int64(12), attrs["smellwalk.commits"])
	assert.Equal(t, "java", attrs["tool.name"])
	assert.Equal(t, "timeout", attrs["error.type"])
}

func TestAttributeFilter_RedactsIdentitiesAndDropsSecrets(t *testing.T) {
	t.Parallel()

	tp, exporter := newFilteredProvider(nil)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.SetAttributes(
		attribute.String("committer.email", "alice@example.com"),
		attribute.String("committer.name", "Alice"),
		attribute.String("author.name", "Bob"),
		attribute.String("email", "bob@example.com"),
		attribute.String("commit.email", "carol@example.com"),
		attribute.String("sonar.token", "squ_secret"),
		attribute.String("url.query", "token=abc"),
		attribute.String("class.name", "Foo"),
		attribute.String("commit.hash", "kept"),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, map[string]any{
		"committer.email": "redacted",
		"committer.name":  "redacted",
		"author.name":     "redacted",
		"email":           "redacted",
		"commit.email":    "redacted",
		"commit.hash":     "kept",
	}, attrs)
}

func TestAttributeFilter_ReportsEachKeyOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	tp, exporter := newFilteredProvider(logger)

	for range 3 {
		_, span := tp.Tracer("test").Start(context.Background(), "op")
		span.SetAttributes(
			attribute.String("committer.email", "alice@example.com"),
			attribute.String("sonar.token", "squ_secret"),
		)
		span.End()
	}

	require.Len(t, exporter.GetSpans(), 3)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "span attribute redacted"))
	assert.Equal(t, 1, strings.Count(out, "span attribute dropped"))
	assert.Contains(t, out, "committer.email")
	assert.NotContains(t, out, "alice@example.com")
	assert.NotContains(t, out, "squ_secret")
}

func TestAttributeFilter_ShutdownAndFlush(t *testing.T) {
	t.Parallel()

	tp, _ := newFilteredProvider(nil)

	require.NoError(t, tp.ForceFlush(context.Background()))
	require.NoError(t, tp.Shutdown(context.Background()))
}
