// Package dag models the commit graph as an arena of immutable records
// addressed by content-derived ids, with a separate supersession map that
// records which commits were replaced by rewritten copies.
//
// Commits are never mutated in place: rewriting history means creating a new
// commit and marking the old one superseded so normal history views hide it.
package dag

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// CommitID identifies a commit. It is the content-derived hash of the commit
// record; plumbing.ZeroHash is the "no commit" sentinel used throughout the
// persisted state format.
type CommitID = plumbing.Hash

// Metadata carries the user-visible commit fields that rebasing preserves.
type Metadata struct {
	Message string
	Branch  string
	Author  string
	Date    time.Time
}

// Commit is an immutable record in the commit arena.
type Commit struct {
	ID      CommitID
	Parents []CommitID
	Content string
	Meta    Metadata
}

// IsMerge reports whether the commit has more than one parent.
func (c *Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// Store provides resolution, creation, ancestry queries, and the
// old-to-new supersession mapping for the commit graph.
type Store interface {
	// Resolve returns the commit for the given id, or an error wrapping
	// replanterrors.ErrNotFound if the id is unknown.
	Resolve(id CommitID) (*Commit, error)

	// Create writes a new immutable commit and returns its id.
	// Identical inputs produce identical ids.
	Create(parents []CommitID, content string, meta Metadata) (CommitID, error)

	// IsAncestor reports whether ancestor is reachable from descendant
	// by following parent edges. A commit is its own ancestor.
	IsAncestor(ancestor, descendant CommitID) (bool, error)

	// MarkSuperseded records that old was replaced by successor. A zero
	// successor marks the commit as pruned with no replacement.
	MarkSuperseded(old, successor CommitID) error

	// Successor returns the live replacement for id, following chains of
	// supersession. ok is false when the commit is not superseded or the
	// chain ends in a pruned commit.
	Successor(id CommitID) (CommitID, bool)

	// IsObsolete reports whether id has been superseded or pruned.
	IsObsolete(id CommitID) bool
}
