package smell

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
)

// Detector runs a smell detector over the working tree in dir.
type Detector interface {
	DetectSmells(ctx context.Context, dir string) ([]Smell, error)
}

// SnapshotProvider turns detector runs into per-revision smell sets. It never
// checks anything out: the caller moves the working tree first.
type SnapshotProvider struct {
	detector Detector
	dir      string
	logger   *slog.Logger
}

// NewSnapshotProvider creates a provider that analyses the working tree in dir.
func NewSnapshotProvider(detector Detector, dir string, logger *slog.Logger) *SnapshotProvider {
	if logger == nil {
		logger = slog.Default()
	}

	return &SnapshotProvider{detector: detector, dir: dir, logger: logger}
}

// Detect returns the smells of the working tree, which must already be at
// revision. An empty set is a valid result.
func (p *SnapshotProvider) Detect(ctx context.Context, revision gitlib.Hash) (*Set, error) {
	smells, err := p.detector.DetectSmells(ctx, p.dir)
	if err != nil {
		return nil, fmt.Errorf("detect smells at %s: %w", revision.Short(), err)
	}

	set := NewSet(smells...)

	if dups := len(smells) - set.Len(); dups > 0 {
		p.logger.DebugContext(ctx, "collapsed duplicate smells", "revision", revision.String(), "duplicates", dups)
	}

	p.logger.DebugContext(ctx, "smell snapshot", "revision", revision.String(), "smells", set.Len())

	return set, nil
}
