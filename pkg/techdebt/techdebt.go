// Package techdebt measures per-file technical debt at a revision and
// derives the debt change a refactoring produced.
package techdebt

import (
	"context"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
)

// Analysis is the debt snapshot of one revision: remediation effort in
// minutes keyed by repository-relative file path.
type Analysis struct {
	Revision gitlib.Hash
	Debt     map[string]int64
}

// Scanner measures debt. ExecuteScanning analyses the working tree, which
// the caller has checked out at revision; AnalysisFor is only valid after
// ExecuteScanning completed for the same revision.
type Scanner interface {
	ExecuteScanning(ctx context.Context, revision gitlib.Hash) error
	AnalysisFor(ctx context.Context, revision gitlib.Hash) (*Analysis, error)
}

// ExtractTD returns the debt recorded for path. Files the scanner did not
// report have zero debt.
func ExtractTD(a *Analysis, path string) int64 {
	if a == nil {
		return 0
	}

	return a.Debt[path]
}

// Delta is the debt of path before minus its debt after. Positive means the
// change reduced debt.
func Delta(previous, actual *Analysis, path string) int64 {
	return ExtractTD(previous, path) - ExtractTD(actual, path)
}
