package gitlib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNoParent is returned for root commits.
	ErrNoParent = errors.New("commit has no parent")
	// ErrCheckout wraps any failure to move the working tree to a revision.
	ErrCheckout = errors.New("checkout failed")
)

// Worktree is the handle to the one mutable working tree of a repository.
// Every checkout goes through it, so whoever owns the Worktree owns the
// filesystem state that smell detection and scanning read. It is not safe
// for concurrent use: one revision is checked out at a time.
type Worktree struct {
	repo   *Repository
	dir    string
	logger *slog.Logger
}

// NewWorktree returns the working tree handle of repo.
func NewWorktree(repo *Repository, logger *slog.Logger) (*Worktree, error) {
	dir, err := repo.WorkDir()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Worktree{repo: repo, dir: dir, logger: logger}, nil
}

// Dir returns the working tree directory.
func (w *Worktree) Dir() string {
	return w.dir
}

// ParentOf returns the first parent of hash. Merge commits are walked
// against their first parent; root commits yield ErrNoParent.
func (w *Worktree) ParentOf(ctx context.Context, hash Hash) (Hash, error) {
	err := ctx.Err()
	if err != nil {
		return Hash{}, err
	}

	commit, err := w.repo.LookupCommit(ctx, hash)
	if err != nil {
		return Hash{}, err
	}
	defer commit.Free()

	parent, ok := commit.FirstParent()
	if !ok {
		return Hash{}, fmt.Errorf("%w: %s", ErrNoParent, hash)
	}

	return parent, nil
}

// Checkout forces the working tree to hash.
func (w *Worktree) Checkout(ctx context.Context, hash Hash) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	err = w.repo.CheckoutDetached(ctx, hash)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckout, err)
	}

	w.logger.DebugContext(ctx, "checked out revision", "revision", hash.String())

	return nil
}

// CommitInfo returns the committer identity of hash.
func (w *Worktree) CommitInfo(ctx context.Context, hash Hash) (CommitInfo, error) {
	commit, err := w.repo.LookupCommit(ctx, hash)
	if err != nil {
		return CommitInfo{}, err
	}
	defer commit.Free()

	sig := commit.Committer()

	return CommitInfo{Hash: hash, Name: sig.Name, Email: sig.Email}, nil
}
