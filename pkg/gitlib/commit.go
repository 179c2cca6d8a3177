package gitlib

import (
	git2go "github.com/libgit2/git2go/v34"
)

// Commit is a looked-up revision. Callers must Free it.
type Commit struct {
	commit *git2go.Commit
}

// Committer returns the commit committer.
func (c *Commit) Committer() Signature {
	sig := c.commit.Committer()

	return Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}

// FirstParent returns the hash of the first parent. Merge commits are
// walked against it; root commits report false.
func (c *Commit) FirstParent() (Hash, bool) {
	if c.commit.ParentCount() == 0 {
		return Hash{}, false
	}

	return HashFromOid(c.commit.ParentId(0)), true
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}
