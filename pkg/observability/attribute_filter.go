package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// redactedValue replaces the value of identity attributes.
const redactedValue = "redacted"

// verdict is what the span policy does with one attribute.
type verdict int

const (
	verdictDrop verdict = iota
	verdictKeep
	verdictRedact
)

// spanPolicy decides the fate of span attributes by key. Exact keys win
// over prefixes; unknown keys are dropped.
type spanPolicy struct {
	exact    map[string]verdict
	prefixes []prefixRule
}

type prefixRule struct {
	prefix  string
	verdict verdict
}

// defaultSpanPolicy keeps run, commit and tool attributes. Committer
// identities stay visible as keys but never as values; credentials never
// leave the process.
var defaultSpanPolicy = spanPolicy{
	exact: map[string]verdict{
		"error":        verdictKeep,
		"email":        verdictRedact,
		"commit.email": verdictRedact,
		"commit.name":  verdictRedact,
		"sonar.token":  verdictDrop,
		"url.query":    verdictDrop,
		"url.full":     verdictDrop,
	},
	prefixes: []prefixRule{
		{"committer.", verdictRedact},
		{"author.", verdictRedact},
		{"user.", verdictRedact},
		{"smellwalk.", verdictKeep},
		{"correlate.", verdictKeep},
		{"commit.", verdictKeep},
		{"tool.", verdictKeep},
		{"error.", verdictKeep},
		{"exception.", verdictKeep},
		{"http.", verdictKeep},
		{"server.", verdictKeep},
		{"url.", verdictKeep},
	},
}

func (p spanPolicy) judge(key string) verdict {
	if v, ok := p.exact[key]; ok {
		return v
	}

	for _, rule := range p.prefixes {
		if strings.HasPrefix(key, rule.prefix) {
			return rule.verdict
		}
	}

	return verdictDrop
}

// attributeFilter is a SpanProcessor that applies a spanPolicy to ended
// spans before the delegate sees them.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	policy   spanPolicy
	logger   *slog.Logger
	reported sync.Map
}

// NewAttributeFilter returns a SpanProcessor that keeps run and commit
// attributes, redacts committer identities and drops everything else.
// When logger is non-nil, each dropped or redacted key is reported once.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, policy: defaultSpanPolicy, logger: logger}
}

// OnStart implements [sdktrace.SpanProcessor].
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd implements [sdktrace.SpanProcessor].
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, attrs: f.apply(s.Attributes())})
}

// Shutdown implements [sdktrace.SpanProcessor].
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shut down span filter: %w", err)
	}

	return nil
}

// ForceFlush implements [sdktrace.SpanProcessor].
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("flush span filter: %w", err)
	}

	return nil
}

func (f *attributeFilter) apply(attrs []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		switch f.policy.judge(string(kv.Key)) {
		case verdictKeep:
			out = append(out, kv)
		case verdictRedact:
			f.report(kv.Key, "redacted")
			out = append(out, kv.Key.String(redactedValue))
		case verdictDrop:
			f.report(kv.Key, "dropped")
		}
	}

	return out
}

func (f *attributeFilter) report(key attribute.Key, action string) {
	if f.logger == nil {
		return
	}

	if _, seen := f.reported.LoadOrStore(key, struct{}{}); seen {
		return
	}

	f.logger.Warn("span attribute "+action, "key", string(key))
}

// filteredSpan is a ReadOnlySpan with its attributes replaced.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

// Attributes returns the filtered attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
