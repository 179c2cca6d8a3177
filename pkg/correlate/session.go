package correlate

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
	"github.com/Sumatoshi-tech/smellwalk/pkg/techdebt"
)

// scanSession runs a commit's scan pair on first use and serves the cached
// analyses afterwards. It lives for one commit.
type scanSession struct {
	engine *Engine
	commit gitlib.Hash
	parent gitlib.Hash

	done     bool
	previous *techdebt.Analysis
	actual   *techdebt.Analysis
}

// analyses returns the parent and commit analyses. The working tree must be
// at the commit on the first call; it is left at the parent.
func (s *scanSession) analyses(ctx context.Context) (previous, actual *techdebt.Analysis, err error) {
	if s.done {
		return s.previous, s.actual, nil
	}

	e := s.engine

	err = e.scanner.ExecuteScanning(ctx, s.commit)
	if err != nil {
		return nil, nil, fmt.Errorf("scan commit: %w", err)
	}

	e.metrics.RecordScan(ctx, "commit")

	err = e.worktree.Checkout(ctx, s.parent)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransition, err)
	}

	err = e.scanner.ExecuteScanning(ctx, s.parent)
	if err != nil {
		return nil, nil, fmt.Errorf("scan parent: %w", err)
	}

	e.metrics.RecordScan(ctx, "parent")

	actual, err = e.scanner.AnalysisFor(ctx, s.commit)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis of commit: %w", err)
	}

	previous, err = e.scanner.AnalysisFor(ctx, s.parent)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis of parent: %w", err)
	}

	s.previous, s.actual, s.done = previous, actual, true

	e.logger.DebugContext(ctx, "scan pair complete",
		"commit", s.commit.String(), "parent", s.parent.String(),
		"files_commit", len(actual.Debt), "files_parent", len(previous.Debt))

	return previous, actual, nil
}
