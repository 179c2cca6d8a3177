package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
)

func newJSONLogger(buf *bytes.Buffer, env string, mode observability.AppMode) *slog.Logger {
	inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(observability.NewTracingHandler(inner, "smellwalk", env, mode))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func TestTracingHandler_ServiceAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	newJSONLogger(&buf, "ci", observability.ModeMine).Info("mining")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "smellwalk", entry["service"])
	assert.Equal(t, "mine", entry["mode"])
	assert.Equal(t, "ci", entry["env"])
	assert.NotContains(t, entry, "trace_id")
}

func TestTracingHandler_OmitsEmptyEnv(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	newJSONLogger(&buf, "", observability.ModeRun).Info("run")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "run", entry["mode"])
	assert.NotContains(t, entry, "env")
}

func TestTracingHandler_InjectsSpanContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	ctx, span := tp.Tracer("test").Start(context.Background(), "smellwalk.commit")

	newJSONLogger(&buf, "", observability.ModeRun).InfoContext(ctx, "commit analysed")
	span.End()

	entry := decodeLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestTracingHandler_GroupKeepsServiceAtTopLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newJSONLogger(&buf, "", observability.ModeRun)
	logger.WithGroup("commit").With("hash", "abc").Info("skipped")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "smellwalk", entry["service"])

	group, ok := entry["commit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc", group["hash"])
}

func TestTracingHandler_CommitScope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := observability.WithCommit(context.Background(), "a94a8fe5cc", 3, 12)

	hash, ok := observability.CommitFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "a94a8fe5cc", hash)

	newJSONLogger(&buf, "", observability.ModeRun).WithGroup("scan").InfoContext(ctx, "scan pair complete")

	entry := decodeLine(t, &buf)
	group, ok := entry["scan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a94a8fe5cc", group["commit"])
	assert.Equal(t, "3/12", group["position"])

	_, ok = observability.CommitFromContext(context.Background())
	assert.False(t, ok)
}

func TestTracingHandler_EnabledDelegates(t *testing.T) {
	t.Parallel()

	inner := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := observability.NewTracingHandler(inner, "smellwalk", "", observability.ModeRun)

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}
