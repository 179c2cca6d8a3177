// Package correlate walks mined commits, compares the smells of each commit
// with those of its parent and attributes removed smells to the commit's
// refactorings, measuring the debt change of every attributed removal.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
	"github.com/Sumatoshi-tech/smellwalk/pkg/matching"
	"github.com/Sumatoshi-tech/smellwalk/pkg/observability"
	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/report"
	"github.com/Sumatoshi-tech/smellwalk/pkg/smell"
	"github.com/Sumatoshi-tech/smellwalk/pkg/techdebt"
)

const tracerName = "smellwalk"

// DefaultMaxConsecutiveFailures is how many commits in a row may fail on a
// collaborator before the run is aborted.
const DefaultMaxConsecutiveFailures = 3

var (
	// ErrTransition wraps failures to move between revisions. The commit is skipped.
	ErrTransition = errors.New("revision transition failed")
	// ErrCollaborator wraps detector and scanner failures. The commit's rows are discarded.
	ErrCollaborator = errors.New("collaborator failed")
	// ErrSystemicFailure is returned when too many consecutive commits failed.
	ErrSystemicFailure = errors.New("too many consecutive collaborator failures")
	// ErrMissingDependency is returned by NewEngine when a collaborator is nil.
	ErrMissingDependency = errors.New("missing engine dependency")
)

// Mode decides what a removed smell without an admissible cause counts as.
type Mode string

const (
	// ModeStrict reports such a smell as not removed.
	ModeStrict Mode = "strict"
	// ModeMinimal reports such a smell as removed with no cause.
	ModeMinimal Mode = "minimal"
)

// Outcome is what happened to one commit.
type Outcome string

// Commit outcomes.
const (
	OutcomeAnalysed Outcome = "analysed"
	OutcomeNoSmells Outcome = "no_smells"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Worktree moves the single working tree between revisions.
type Worktree interface {
	ParentOf(ctx context.Context, hash gitlib.Hash) (gitlib.Hash, error)
	Checkout(ctx context.Context, hash gitlib.Hash) error
	CommitInfo(ctx context.Context, hash gitlib.Hash) (gitlib.CommitInfo, error)
}

// SnapshotDetector returns the smells of the checked out revision.
type SnapshotDetector interface {
	Detect(ctx context.Context, revision gitlib.Hash) (*smell.Set, error)
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Worktree Worktree
	Detector SnapshotDetector
	Scanner  techdebt.Scanner
	Matcher  *matching.Matcher
}

// Options tune an Engine.
type Options struct {
	Mode       Mode
	Classifier techdebt.Classifier
	// MaxConsecutiveFailures aborts the run after that many consecutive
	// failed commits; zero uses the default.
	MaxConsecutiveFailures int

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.RunMetrics
	// Progress, when set, is called after every commit.
	Progress func(Progress)
}

// Progress reports one finished commit.
type Progress struct {
	Index   int
	Total   int
	Commit  gitlib.Hash
	Outcome Outcome
	Records int
	Err     error
}

// Summary describes a finished run.
type Summary struct {
	CommitsMined    int
	CommitsAnalysed int
	CommitsNoSmells int
	CommitsSkipped  int
	CommitsFailed   int
	Records         int
	Removed         int
	ScanPairs       int
	Duration        time.Duration
}

// Engine correlates smell removals with refactorings, one commit at a time.
// It owns the working tree for the duration of Run.
type Engine struct {
	worktree    Worktree
	detector    SnapshotDetector
	scanner     techdebt.Scanner
	matcher     *matching.Matcher
	classifier  techdebt.Classifier
	mode        Mode
	maxFailures int
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *observability.RunMetrics
	progress    func(Progress)
}

// NewEngine creates an engine.
func NewEngine(deps Deps, opts Options) (*Engine, error) {
	if deps.Worktree == nil || deps.Detector == nil || deps.Scanner == nil || deps.Matcher == nil {
		return nil, ErrMissingDependency
	}

	switch opts.Mode {
	case "":
		opts.Mode = ModeStrict
	case ModeStrict, ModeMinimal:
	default:
		return nil, fmt.Errorf("unknown correlation mode %q", opts.Mode)
	}

	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}

	if opts.Classifier == (techdebt.Classifier{}) {
		opts.Classifier = techdebt.NewClassifier(0)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	return &Engine{
		worktree:    deps.Worktree,
		detector:    deps.Detector,
		scanner:     deps.Scanner,
		matcher:     deps.Matcher,
		classifier:  opts.Classifier,
		mode:        opts.Mode,
		maxFailures: opts.MaxConsecutiveFailures,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		metrics:     opts.Metrics,
		progress:    opts.Progress,
	}, nil
}

// Run processes commits in order and appends their rows to acc. A commit's
// rows are appended only once the commit has been fully processed.
//
// Run returns early with an error, and a summary of the work done so far,
// when ctx ends, when a smell type has no admissibility entry, or when
// collaborator failures look systemic.
func (e *Engine) Run(ctx context.Context, commits []refactoring.CommitRecord, acc *report.Accumulator) (Summary, error) {
	start := time.Now()
	summary := Summary{CommitsMined: len(commits)}

	ctx, span := e.tracer.Start(ctx, "smellwalk.correlate",
		trace.WithAttributes(attribute.Int("correlate.commits", len(commits))))
	defer span.End()

	failures := 0

	for i, rec := range commits {
		err := ctx.Err()
		if err != nil {
			summary.Duration = time.Since(start)

			return summary, err
		}

		commitStart := time.Now()

		commitCtx := observability.WithCommit(ctx, rec.Hash.String(), i+1, len(commits))

		rows, scanned, outcome, err := e.processCommit(commitCtx, rec)

		e.metrics.RecordCommit(ctx, string(outcome), time.Since(commitStart))

		switch outcome {
		case OutcomeAnalysed:
			failures = 0
			summary.CommitsAnalysed++

			acc.Append(rows...)
			summary.Records += len(rows)

			removed := countRemoved(rows)
			summary.Removed += removed

			e.metrics.RecordRecords(ctx, true, removed)
			e.metrics.RecordRecords(ctx, false, len(rows)-removed)
		case OutcomeNoSmells:
			failures = 0
			summary.CommitsNoSmells++
		case OutcomeSkipped:
			summary.CommitsSkipped++
		case OutcomeFailed:
			failures++
			summary.CommitsFailed++
		}

		if scanned {
			summary.ScanPairs++
		}

		e.report(Progress{Index: i + 1, Total: len(commits), Commit: rec.Hash, Outcome: outcome, Records: len(rows), Err: err})

		if err != nil && isFatal(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			summary.Duration = time.Since(start)

			return summary, err
		}

		if failures >= e.maxFailures {
			err = fmt.Errorf("%w: %d commits in a row, last: %w", ErrSystemicFailure, failures, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			summary.Duration = time.Since(start)

			return summary, err
		}
	}

	summary.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("correlate.records", summary.Records),
		attribute.Int("correlate.scan_pairs", summary.ScanPairs),
	)

	return summary, nil
}

func (e *Engine) report(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}

// isFatal reports whether err must stop the whole run.
func isFatal(err error) bool {
	return errors.Is(err, matching.ErrUnknownSmellType) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func countRemoved(rows []report.Record) int {
	n := 0

	for _, r := range rows {
		if r.Removed {
			n++
		}
	}

	return n
}
