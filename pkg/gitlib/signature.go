package gitlib

import "time"

// Signature represents a git signature (author/committer).
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitInfo is the metadata smellwalk reports for a commit: the committer
// identity recorded in the revision.
type CommitInfo struct {
	Hash  Hash
	Name  string
	Email string
}
