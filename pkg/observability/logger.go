package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys added by TracingHandler.
const (
	attrTraceID  = "trace_id"
	attrSpanID   = "span_id"
	attrService  = "service"
	attrEnv      = "env"
	attrMode     = "mode"
	attrCommit   = "commit"
	attrPosition = "position"
)

type commitKey struct{}

// commitScope is the commit being walked and its place in the walk.
type commitScope struct {
	hash  string
	index int
	total int
}

// WithCommit returns a copy of ctx scoped to the commit hash, the index-th
// of total. Records logged with the returned context carry the commit and
// its position, whichever package logs them.
func WithCommit(ctx context.Context, hash string, index, total int) context.Context {
	return context.WithValue(ctx, commitKey{}, commitScope{hash: hash, index: index, total: total})
}

// CommitFromContext returns the commit hash ctx is scoped to.
func CommitFromContext(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(commitKey{}).(commitScope)

	return scope.hash, ok
}

// TracingHandler is an [slog.Handler] for smellwalk runs. Every record gets
// the service, env and mode it was built with, the commit the context is
// scoped to, and the trace and span IDs of the active span.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner. The run attributes are attached to inner
// up front so they stay at the top level under WithGroup.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds the commit scope and span context of ctx, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if scope, ok := ctx.Value(commitKey{}).(commitScope); ok {
		record.AddAttrs(
			slog.String(attrCommit, scope.hash),
			slog.String(attrPosition, strconv.Itoa(scope.index)+"/"+strconv.Itoa(scope.total)),
		)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("log record: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
