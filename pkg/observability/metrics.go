package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCalls         = "smellwalk.calls.total"
	metricCallFailures  = "smellwalk.call.failures.total"
	metricCallDuration  = "smellwalk.call.duration.seconds"
	metricCallsInflight = "smellwalk.calls.inflight"

	attrOp     = "op"
	attrKind   = "kind"
	attrStatus = "status"

	statusError = "error"
)

// durationBucketBoundaries covers 10ms to 30min: from SonarQube API calls to
// full sonar-scanner and RefactoringMiner runs.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800}

// CallMetrics records the external calls of a run: tool processes under
// "tool <name>" operations and SonarQube requests under "http <path>". The
// first word of an operation is its kind. A nil *CallMetrics records
// nothing.
type CallMetrics struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

// NewCallMetrics creates the call instruments on mt.
func NewCallMetrics(mt metric.Meter) (*CallMetrics, error) {
	var (
		cm  CallMetrics
		err error
	)

	cm.calls, err = mt.Int64Counter(metricCalls,
		metric.WithDescription("External calls by operation, kind and status"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCalls, err)
	}

	cm.failures, err = mt.Int64Counter(metricCallFailures,
		metric.WithDescription("External calls that failed"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCallFailures, err)
	}

	cm.duration, err = mt.Float64Histogram(metricCallDuration,
		metric.WithDescription("External call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCallDuration, err)
	}

	cm.inflight, err = mt.Int64UpDownCounter(metricCallsInflight,
		metric.WithDescription("External calls in progress"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCallsInflight, err)
	}

	return &cm, nil
}

// RecordCall records one finished call of op. Any status but "ok" counts
// as a failure.
func (cm *CallMetrics) RecordCall(ctx context.Context, op, status string, duration time.Duration) {
	if cm == nil {
		return
	}

	kind, _, _ := strings.Cut(op, " ")
	opAttr := attribute.String(attrOp, op)

	cm.calls.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String(attrKind, kind), attribute.String(attrStatus, status)))
	cm.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(opAttr))

	if status != statusOK {
		cm.failures.Add(ctx, 1, metric.WithAttributes(opAttr))
	}
}

// TrackCall marks a call of op as started. The returned func marks it done.
func (cm *CallMetrics) TrackCall(ctx context.Context, op string) func() {
	if cm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	cm.inflight.Add(ctx, 1, attrs)

	return func() { cm.inflight.Add(ctx, -1, attrs) }
}
