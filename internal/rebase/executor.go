package rebase

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/replant-vcs/replant/internal/dag"
	"github.com/replant-vcs/replant/internal/merge"
	"github.com/replant-vcs/replant/internal/replanterrors"
)

// Checkout is the working-copy collaborator: it tracks which commit the
// checked-out snapshot corresponds to.
type Checkout interface {
	Parent() (dag.CommitID, error)
	SetParent(id dag.CommitID) error
}

// Phase is the global state of the executor.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseCompleted
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	case PhaseAborted:
		return "aborted"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Result reports the outcome of a completed rebase.
type Result struct {
	// Mappings lists (original, new) pairs in processing order.
	Mappings []Mapping
	// Tip is the final rebased commit the working copy was moved to.
	// Zero when nothing was rebased.
	Tip dag.CommitID
	// NothingToDo is true when the run found no pending entries.
	NothingToDo bool
}

// Executor drives the rebase state machine: it advances pending entries one
// at a time through merge, commit, and record, persisting the state after
// every transition, and pauses on conflict by returning a ConflictPauseError
// with the state still on disk.
//
// Entries are strictly sequential because each new commit may be an input
// parent of the next; there is no parallelism to exploit.
type Executor struct {
	store    dag.Store
	merger   merge.Engine
	checkout Checkout
	file     *StateFile
	phase    Phase

	// Progress, when set, is invoked with each original commit as its
	// rewrite begins.
	Progress func(c *dag.Commit)
}

// NewExecutor creates an executor over the given collaborators.
func NewExecutor(store dag.Store, merger merge.Engine, checkout Checkout, file *StateFile) *Executor {
	return &Executor{
		store:    store,
		merger:   merger,
		checkout: checkout,
		file:     file,
		phase:    PhaseIdle,
	}
}

// Phase returns the executor's global state.
func (x *Executor) Phase() Phase {
	return x.phase
}

// Begin persists the initial state and runs the rebase until completion,
// conflict pause, or failure.
func (x *Executor) Begin(state *State) (*Result, error) {
	if x.file.Exists() {
		return nil, fmt.Errorf("a rebase is already in progress (run continue or abort first)")
	}
	if err := x.file.Save(state); err != nil {
		return nil, err
	}
	return x.run(state)
}

// Resume reloads the persisted state, written by this client or a legacy
// one, validates it against the current graph, and re-enters the loop at the
// first pending entry. Unreadable or malformed state is fatal: the file is
// left untouched for diagnosis and no partial resume happens.
func (x *Executor) Resume() (*Result, error) {
	state, err := x.file.Load()
	if err != nil {
		return nil, err
	}
	if err := x.validate(state); err != nil {
		return nil, err
	}
	return x.run(state)
}

// Abort discards the persisted state and restores the pre-rebase working-copy
// parent. Already-rebased entries are never rolled back automatically; their
// new commits simply stay unreferenced. Valid only while idle or paused.
func (x *Executor) Abort() (dag.CommitID, error) {
	state, err := x.file.Load()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	restored := plumbing.ZeroHash
	if !state.OriginalWorkingParent.IsZero() {
		if err := x.checkout.SetParent(state.OriginalWorkingParent); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to restore working copy: %w", err)
		}
		restored = state.OriginalWorkingParent
	}
	if err := x.file.Clear(); err != nil {
		return plumbing.ZeroHash, err
	}
	x.phase = PhaseAborted
	return restored, nil
}

// validate checks that the destination and every commit the state references
// still resolve in the graph. A structurally valid file that points at
// missing commits is corrupt, and nothing (working copy included) is mutated.
func (x *Executor) validate(state *State) error {
	if _, err := x.store.Resolve(state.Destination); err != nil {
		return replanterrors.NewStateCorruptError(state.Destination.String(), "destination does not resolve")
	}
	if !state.ExternalParent.IsZero() {
		if _, err := x.store.Resolve(state.ExternalParent); err != nil {
			return replanterrors.NewStateCorruptError(state.ExternalParent.String(), "external parent does not resolve")
		}
	}
	for i := range state.Entries {
		e := &state.Entries[i]
		if _, err := x.store.Resolve(e.Original); err != nil {
			return replanterrors.NewStateCorruptError(e.Original.String(), "entry references unknown commit")
		}
		if e.Status.Kind == StatusRebased {
			if _, err := x.store.Resolve(e.Status.NewID); err != nil {
				return replanterrors.NewStateCorruptError(e.Status.NewID.String(), "entry references unknown rebased commit")
			}
		}
	}
	return nil
}

func (x *Executor) run(state *State) (*Result, error) {
	x.phase = PhaseRunning

	if state.Collapse {
		return x.runCollapse(state)
	}

	processed := 0
	for i := range state.Entries {
		if state.Entries[i].Status.Terminal() {
			continue
		}
		orig, err := x.store.Resolve(state.Entries[i].Original)
		if err != nil {
			x.phase = PhasePaused
			return nil, replanterrors.NewStateCorruptError(state.Entries[i].Original.String(), "entry references unknown commit")
		}
		if x.Progress != nil {
			x.Progress(orig)
		}

		parents, base, err := x.newParents(state, orig)
		if err != nil {
			x.phase = PhasePaused
			return nil, err
		}
		ours, err := x.contentOf(parents[0])
		if err != nil {
			x.phase = PhasePaused
			return nil, err
		}

		res, err := x.merger.Merge(base, ours, orig.Content)
		if err != nil {
			// The entry stays pending; earlier rebased entries are untouched.
			if saveErr := x.file.Save(state); saveErr != nil {
				return nil, saveErr
			}
			x.phase = PhasePaused
			return nil, replanterrors.NewMergeEngineError(short(orig.ID), err)
		}
		if !res.Clean {
			if err := x.file.Save(state); err != nil {
				return nil, err
			}
			x.phase = PhasePaused
			return nil, replanterrors.NewConflictPauseError(short(orig.ID), res.Markers)
		}

		newID, err := x.createCommit(state, parents, res.Content, orig.Meta)
		if err != nil {
			x.phase = PhasePaused
			return nil, err
		}
		if err := state.MarkRebased(i, newID); err != nil {
			return nil, err
		}
		if err := x.file.Save(state); err != nil {
			return nil, err
		}
		processed++
	}

	return x.complete(state, processed)
}

// runCollapse folds the whole set into one commit on the destination. The
// per-entry merge chain runs without creating intermediate commits; entries
// transition together once the collapsed commit exists, so a conflict pause
// simply replays the chain on resume.
func (x *Executor) runCollapse(state *State) (*Result, error) {
	destContent, err := x.contentOf(state.Destination)
	if err != nil {
		return nil, err
	}

	content := destContent
	var messages []string
	var last *dag.Commit
	pending := 0
	for i := range state.Entries {
		if state.Entries[i].Status.Terminal() {
			continue
		}
		orig, err := x.store.Resolve(state.Entries[i].Original)
		if err != nil {
			x.phase = PhasePaused
			return nil, replanterrors.NewStateCorruptError(state.Entries[i].Original.String(), "entry references unknown commit")
		}
		if x.Progress != nil {
			x.Progress(orig)
		}

		base := ""
		if len(orig.Parents) > 0 {
			if base, err = x.contentOf(orig.Parents[0]); err != nil {
				x.phase = PhasePaused
				return nil, err
			}
		}
		res, err := x.merger.Merge(base, content, orig.Content)
		if err != nil {
			x.phase = PhasePaused
			return nil, replanterrors.NewMergeEngineError(short(orig.ID), err)
		}
		if !res.Clean {
			if err := x.file.Save(state); err != nil {
				return nil, err
			}
			x.phase = PhasePaused
			return nil, replanterrors.NewConflictPauseError(short(orig.ID), res.Markers)
		}
		content = res.Content
		messages = append(messages, orig.Meta.Message)
		last = orig
		pending++
	}

	if pending == 0 {
		return x.complete(state, 0)
	}

	meta := last.Meta
	meta.Message = joinMessages(messages)
	parents := []dag.CommitID{state.Destination}
	if !state.ExternalParent.IsZero() {
		parents = append(parents, state.ExternalParent)
	}
	newID, err := x.createCommit(state, parents, content, meta)
	if err != nil {
		x.phase = PhasePaused
		return nil, err
	}
	for i := range state.Entries {
		if !state.Entries[i].Status.Terminal() {
			if err := state.MarkRebased(i, newID); err != nil {
				return nil, err
			}
		}
	}
	if err := x.file.Save(state); err != nil {
		return nil, err
	}
	return x.complete(state, pending)
}

func (x *Executor) complete(state *State, processed int) (*Result, error) {
	res := &Result{
		Mappings:    state.Mappings(),
		NothingToDo: processed == 0,
	}

	tip := state.Tip()
	if !tip.IsZero() {
		if err := x.checkout.SetParent(tip); err != nil {
			return nil, fmt.Errorf("failed to move working copy to rebased tip: %w", err)
		}
		res.Tip = tip
	}

	if !state.KeepOriginals {
		for _, m := range res.Mappings {
			if err := x.store.MarkSuperseded(m.Original, m.New); err != nil {
				return nil, err
			}
		}
	}

	if err := x.file.Clear(); err != nil {
		return nil, err
	}
	x.phase = PhaseCompleted
	return res, nil
}

// newParents computes the rewritten parent set for orig along with the merge
// base content (the old primary parent's content).
func (x *Executor) newParents(state *State, orig *dag.Commit) ([]dag.CommitID, string, error) {
	if len(orig.Parents) == 0 {
		return []dag.CommitID{state.Destination}, "", nil
	}

	base, err := x.contentOf(orig.Parents[0])
	if err != nil {
		return nil, "", err
	}
	primary, err := x.mapParent(state, orig.Parents[0])
	if err != nil {
		return nil, "", err
	}
	parents := []dag.CommitID{primary}

	if orig.IsMerge() {
		secondary, err := x.mapSecondary(state, orig.Parents[1])
		if err != nil {
			return nil, "", err
		}
		if secondary != primary && !secondary.IsZero() {
			parents = append(parents, secondary)
		}
	}
	return parents, base, nil
}

// mapParent resolves where a rewritten commit's primary parent edge lands:
// the rebased counterpart when the old parent was rebased too, the nearest
// live rebased ancestor when it was skipped, or the destination once the
// walk leaves the set.
func (x *Executor) mapParent(state *State, parent dag.CommitID) (dag.CommitID, error) {
	cur := parent
	for {
		idx := state.Find(cur)
		if idx < 0 {
			return state.Destination, nil
		}
		e := &state.Entries[idx]
		switch e.Status.Kind {
		case StatusRebased:
			return e.Status.NewID, nil
		case StatusPending:
			// Entries are stored ancestors-first, so a pending ancestor
			// means the file's order is not a valid topological sort.
			return plumbing.ZeroHash, replanterrors.NewStateCorruptError(
				cur.String(), "entry ordered before its ancestor")
		}

		switch e.Status.Reason {
		case SkipAlreadyInDestination:
			return state.Destination, nil
		case SkipSuperseded:
			if succ, ok := x.store.Successor(cur); ok {
				return succ, nil
			}
		}

		// Obsolete or pruned with no live replacement: re-parent to the
		// nearest live rebased ancestor.
		c, err := x.store.Resolve(cur)
		if err != nil {
			return plumbing.ZeroHash, replanterrors.NewStateCorruptError(cur.String(), "entry references unknown commit")
		}
		if len(c.Parents) == 0 {
			return state.Destination, nil
		}
		cur = c.Parents[0]
	}
}

// mapSecondary resolves a merge commit's second parent. Inside the set it
// maps like any parent; outside the set it is the operation's external
// parent when one was recorded, otherwise the original edge is kept.
func (x *Executor) mapSecondary(state *State, parent dag.CommitID) (dag.CommitID, error) {
	if state.Find(parent) >= 0 {
		return x.mapParent(state, parent)
	}
	if !state.ExternalParent.IsZero() {
		return state.ExternalParent, nil
	}
	return parent, nil
}

func (x *Executor) createCommit(state *State, parents []dag.CommitID, content string, meta dag.Metadata) (dag.CommitID, error) {
	if !state.KeepBranchNames {
		meta.Branch = ""
	}
	return x.store.Create(parents, content, meta)
}

func (x *Executor) contentOf(id dag.CommitID) (string, error) {
	c, err := x.store.Resolve(id)
	if err != nil {
		return "", err
	}
	return c.Content, nil
}

func joinMessages(messages []string) string {
	if len(messages) == 1 {
		return messages[0]
	}
	out := "Collapsed revisions:\n"
	for _, m := range messages {
		out += "\n* " + m
	}
	return out
}
