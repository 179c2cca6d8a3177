package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal   = "smellwalk.commits.total"
	metricCommitDuration = "smellwalk.commit.duration.seconds"
	metricRecordsTotal   = "smellwalk.records.total"
	metricScansTotal     = "smellwalk.scans.total"

	attrOutcome  = "outcome"
	attrRemoved  = "removed"
	attrRevision = "revision"
)

// RunMetrics holds the OTel instruments of a correlation run.
type RunMetrics struct {
	commitsTotal   metric.Int64Counter
	commitDuration metric.Float64Histogram
	recordsTotal   metric.Int64Counter
	scansTotal     metric.Int64Counter
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Commits processed by outcome"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	commitDur, err := mt.Float64Histogram(metricCommitDuration,
		metric.WithDescription("Per-commit processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitDuration, err)
	}

	records, err := mt.Int64Counter(metricRecordsTotal,
		metric.WithDescription("Result records emitted"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsTotal, err)
	}

	scans, err := mt.Int64Counter(metricScansTotal,
		metric.WithDescription("Debt scans executed"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricScansTotal, err)
	}

	return &RunMetrics{
		commitsTotal:   commits,
		commitDuration: commitDur,
		recordsTotal:   records,
		scansTotal:     scans,
	}, nil
}

// RecordCommit records one processed commit.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordCommit(ctx context.Context, outcome string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	rm.commitsTotal.Add(ctx, 1, attrs)
	rm.commitDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRecords records emitted result rows.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordRecords(ctx context.Context, removed bool, n int) {
	if rm == nil || n == 0 {
		return
	}

	rm.recordsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrRemoved, strconv.FormatBool(removed))))
}

// RecordScan records one debt scan; revision is "commit" or "parent".
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordScan(ctx context.Context, revision string) {
	if rm == nil {
		return
	}

	rm.scansTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRevision, revision)))
}
