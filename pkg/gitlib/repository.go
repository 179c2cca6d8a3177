package gitlib

import (
	"context"
	"errors"
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrBareRepository is returned when the repository has no working tree to check out into.
var ErrBareRepository = errors.New("repository has no working tree")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// WorkDir returns the working tree directory without a trailing separator.
func (r *Repository) WorkDir() (string, error) {
	dir := r.repo.Workdir()
	if dir == "" {
		return "", ErrBareRepository
	}

	return strings.TrimRight(dir, "/"), nil
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(_ context.Context, hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}

	return &Commit{commit: commit}, nil
}

// CheckoutDetached force-checks out the tree of hash into the working
// directory and detaches HEAD at it, discarding local modifications
// (git checkout -f <hash>).
func (r *Repository) CheckoutDetached(ctx context.Context, hash Hash) error {
	commit, err := r.LookupCommit(ctx, hash)
	if err != nil {
		return err
	}
	defer commit.Free()

	tree, err := commit.commit.Tree()
	if err != nil {
		return fmt.Errorf("get commit tree: %w", err)
	}
	defer tree.Free()

	opts := &git2go.CheckoutOptions{Strategy: git2go.CheckoutForce}

	err = r.repo.CheckoutTree(tree, opts)
	if err != nil {
		return fmt.Errorf("checkout tree %s: %w", hash, err)
	}

	err = r.repo.SetHeadDetached(hash.ToOid())
	if err != nil {
		return fmt.Errorf("detach HEAD at %s: %w", hash, err)
	}

	return nil
}
