// Package rebase implements the resumable rebase engine: plan building,
// the durable operation state with its canonical and legacy serializations,
// and the executor state machine that advances one entry at a time.
package rebase

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/replant-vcs/replant/internal/dag"
)

// SkipReason explains why an entry was excluded from rewriting. The numeric
// values are the negative tokens used by the legacy state file, inherited
// from older clients; the set is closed but deliberately easy to extend.
type SkipReason int

const (
	// SkipAlreadyInDestination marks a commit whose rebased copy is already
	// reachable from the destination.
	SkipAlreadyInDestination SkipReason = -2
	// SkipObsolete marks a superseded commit with no live replacement;
	// children are re-parented to the nearest live rebased ancestor.
	SkipObsolete SkipReason = -3
	// SkipSuperseded marks a commit whose replacement is rebased in its place.
	SkipSuperseded SkipReason = -4
	// SkipPruned marks a commit that was deleted with no replacement.
	SkipPruned SkipReason = -5
)

// Known reports whether r is a recognized skip token. Unrecognized negative
// tokens in a state file are rejected rather than coerced.
func (r SkipReason) Known() bool {
	switch r {
	case SkipAlreadyInDestination, SkipObsolete, SkipSuperseded, SkipPruned:
		return true
	}
	return false
}

func (r SkipReason) String() string {
	switch r {
	case SkipAlreadyInDestination:
		return "already in destination"
	case SkipObsolete:
		return "obsolete"
	case SkipSuperseded:
		return "superseded"
	case SkipPruned:
		return "pruned"
	}
	return fmt.Sprintf("unknown skip reason %d", int(r))
}

// StatusKind is the coarse state of one entry.
type StatusKind int

const (
	// StatusPending means the entry has not been rewritten yet.
	StatusPending StatusKind = iota
	// StatusRebased means a new commit was created for the entry.
	StatusRebased
	// StatusSkipped means the entry was excluded from rewriting.
	StatusSkipped
)

// EntryStatus is the full status of one entry: Pending, Rebased(new id), or
// Skipped(reason). Entries move from Pending to exactly one terminal status
// and never revert.
type EntryStatus struct {
	Kind   StatusKind
	NewID  dag.CommitID // set when Kind == StatusRebased
	Reason SkipReason   // set when Kind == StatusSkipped
}

// Pending returns the pending status.
func Pending() EntryStatus {
	return EntryStatus{Kind: StatusPending}
}

// Rebased returns a terminal status recording the rewritten commit.
func Rebased(newID dag.CommitID) EntryStatus {
	return EntryStatus{Kind: StatusRebased, NewID: newID}
}

// Skipped returns a terminal status recording why the entry was not rewritten.
func Skipped(reason SkipReason) EntryStatus {
	return EntryStatus{Kind: StatusSkipped, Reason: reason}
}

// Terminal reports whether the status is final.
func (s EntryStatus) Terminal() bool {
	return s.Kind != StatusPending
}

// Entry tracks the progress of one commit through the rebase.
type Entry struct {
	Original dag.CommitID
	Status   EntryStatus
}

// Mapping records one original commit and the commit that replaced it.
type Mapping struct {
	Original dag.CommitID
	New      dag.CommitID
}

// State is the durable record of one rebase operation: its parameters plus
// per-commit progress. Entries are stored in topological order, ancestors
// before descendants, and the destination never changes for the life of the
// operation.
type State struct {
	// OriginalWorkingParent is the working-copy parent before the rebase
	// started, restored on abort. Zero when unknown.
	OriginalWorkingParent dag.CommitID
	// Destination is the commit the set is moved onto.
	Destination dag.CommitID
	// ExternalParent is the outside-the-set second parent used when a merge
	// commit in the set pulls from external history. Zero when unset.
	ExternalParent dag.CommitID
	// Collapse folds the whole set into a single commit on the destination.
	Collapse bool
	// KeepOriginals leaves the original commits visible instead of marking
	// them superseded.
	KeepOriginals bool
	// KeepBranchNames preserves branch metadata on the rewritten copies.
	KeepBranchNames bool
	// Entries is the ordered per-commit progress record.
	Entries []Entry
}

// FirstPending returns the index of the first pending entry, or -1 when every
// entry has reached a terminal status.
func (s *State) FirstPending() int {
	for i := range s.Entries {
		if !s.Entries[i].Status.Terminal() {
			return i
		}
	}
	return -1
}

// PendingCount returns the number of entries still awaiting rewrite.
func (s *State) PendingCount() int {
	n := 0
	for i := range s.Entries {
		if !s.Entries[i].Status.Terminal() {
			n++
		}
	}
	return n
}

// Completed reports whether every entry has reached a terminal status.
func (s *State) Completed() bool {
	return s.FirstPending() == -1
}

// Find returns the entry index for the given original commit, or -1.
func (s *State) Find(original dag.CommitID) int {
	for i := range s.Entries {
		if s.Entries[i].Original == original {
			return i
		}
	}
	return -1
}

// MarkRebased transitions entry i from Pending to Rebased(newID).
func (s *State) MarkRebased(i int, newID dag.CommitID) error {
	return s.transition(i, Rebased(newID))
}

// MarkSkipped transitions entry i from Pending to Skipped(reason).
func (s *State) MarkSkipped(i int, reason SkipReason) error {
	return s.transition(i, Skipped(reason))
}

func (s *State) transition(i int, status EntryStatus) error {
	if i < 0 || i >= len(s.Entries) {
		return fmt.Errorf("entry index %d out of range", i)
	}
	e := &s.Entries[i]
	if e.Status.Terminal() {
		return fmt.Errorf("entry %s already has a terminal status", e.Original)
	}
	e.Status = status
	return nil
}

// Mappings returns the ordered (original, new) pairs for rebased entries.
func (s *State) Mappings() []Mapping {
	var out []Mapping
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Status.Kind == StatusRebased {
			out = append(out, Mapping{Original: e.Original, New: e.Status.NewID})
		}
	}
	return out
}

// Tip returns the new id of the last rebased entry, or zero when nothing was
// rebased.
func (s *State) Tip() dag.CommitID {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Status.Kind == StatusRebased {
			return s.Entries[i].Status.NewID
		}
	}
	return plumbing.ZeroHash
}
