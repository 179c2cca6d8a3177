package correlate

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/smellwalk/pkg/refactoring"
	"github.com/Sumatoshi-tech/smellwalk/pkg/report"
	"github.com/Sumatoshi-tech/smellwalk/pkg/smell"
	"github.com/Sumatoshi-tech/smellwalk/pkg/techdebt"
)

// processCommit runs the per-commit state machine. scanned reports whether
// the commit's scan pair completed.
func (e *Engine) processCommit(
	ctx context.Context, rec refactoring.CommitRecord,
) (rows []report.Record, scanned bool, outcome Outcome, err error) {
	ctx, span := e.tracer.Start(ctx, "smellwalk.commit",
		trace.WithAttributes(
			attribute.String("commit.hash", rec.Hash.String()),
			attribute.Int("commit.refactorings", len(rec.Refactorings)),
		))

	defer func() {
		span.SetAttributes(
			attribute.String("commit.outcome", string(outcome)),
			attribute.Int("commit.records", len(rows)),
		)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	parent, err := e.worktree.ParentOf(ctx, rec.Hash)
	if err != nil {
		return e.skip(ctx, "resolve parent", err)
	}

	err = e.worktree.Checkout(ctx, parent)
	if err != nil {
		return e.skip(ctx, "checkout parent", err)
	}

	before, err := e.detector.Detect(ctx, parent)
	if err != nil {
		return e.fail(ctx, "detect smells at parent", err)
	}

	if before.Len() == 0 {
		e.logger.InfoContext(ctx, "no smells at parent", "parent", parent.String())

		return nil, false, OutcomeNoSmells, nil
	}

	err = e.worktree.Checkout(ctx, rec.Hash)
	if err != nil {
		return e.skip(ctx, "checkout commit", err)
	}

	info, err := e.worktree.CommitInfo(ctx, rec.Hash)
	if err != nil {
		return e.skip(ctx, "read commit metadata", err)
	}

	after, err := e.detector.Detect(ctx, rec.Hash)
	if err != nil {
		return e.fail(ctx, "detect smells at commit", err)
	}

	session := &scanSession{engine: e, commit: rec.Hash, parent: parent}
	rows = make([]report.Record, 0, before.Len())

	for _, s0 := range before.Items() {
		row := report.Record{
			CommitHash:     rec.Hash.String(),
			ClassName:      s0.Class,
			MethodName:     s0.Method,
			CommitterName:  info.Name,
			CommitterEmail: info.Email,
			SmellType:      s0.Type,
		}

		if !after.Contains(s0) {
			err = e.attribute(ctx, session, rec, s0, &row)

			switch {
			case err == nil:
			case isFatal(err):
				return nil, false, OutcomeFailed, err
			case errors.Is(err, ErrTransition):
				return e.skip(ctx, "checkout parent for scan", err)
			default:
				return e.fail(ctx, "measure debt", err)
			}
		}

		rows = append(rows, row)
	}

	e.logger.InfoContext(ctx, "commit analysed",
		"parent", parent.String(),
		"smells_before", before.Len(),
		"smells_after", after.Len(),
		"records", len(rows),
		"scanned", session.done,
	)

	return rows, session.done, OutcomeAnalysed, nil
}

// attribute fills row for a smell absent after the commit.
func (e *Engine) attribute(
	ctx context.Context, session *scanSession, rec refactoring.CommitRecord, s0 smell.Smell, row *report.Record,
) error {
	cause, found, err := e.matcher.FindCause(s0, rec.Refactorings)
	if err != nil {
		return err
	}

	if !found {
		row.Removed = e.mode == ModeMinimal

		return nil
	}

	previous, actual, err := session.analyses(ctx)
	if err != nil {
		return err
	}

	delta := techdebt.Delta(previous, actual, cause.Path)

	row.Removed = true
	row.RefactoringType = cause.Refactoring.Type.String()
	row.TDDelta = &delta
	row.TDClass = string(e.classifier.Classify(delta))

	return nil
}

func (e *Engine) skip(ctx context.Context, step string, err error) ([]report.Record, bool, Outcome, error) {
	if ctx.Err() != nil {
		return nil, false, OutcomeFailed, ctx.Err()
	}

	if !errors.Is(err, ErrTransition) {
		err = fmt.Errorf("%w: %s: %w", ErrTransition, step, err)
	}

	e.logger.WarnContext(ctx, "skipping commit", "step", step, "error", err)

	return nil, false, OutcomeSkipped, err
}

func (e *Engine) fail(ctx context.Context, step string, err error) ([]report.Record, bool, Outcome, error) {
	if ctx.Err() != nil {
		return nil, false, OutcomeFailed, ctx.Err()
	}

	err = fmt.Errorf("%w: %s: %w", ErrCollaborator, step, err)
	e.logger.ErrorContext(ctx, "commit failed, discarding its records", "step", step, "error", err)

	return nil, false, OutcomeFailed, err
}
