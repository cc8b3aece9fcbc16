package rebase

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/replant-vcs/replant/internal/dag"
	"github.com/replant-vcs/replant/internal/replanterrors"
)

// PlanOptions carries the operation parameters captured at plan time.
type PlanOptions struct {
	// WorkingParent is the current working-copy parent, recorded so abort
	// can restore it. Zero when unknown.
	WorkingParent dag.CommitID
	// ExternalParent is the outside-the-set second parent for merges.
	ExternalParent dag.CommitID
	Collapse        bool
	KeepOriginals   bool
	KeepBranchNames bool
}

// BuildPlan computes the initial operation state for rebasing set onto dest:
// the set in topological order (ancestors before descendants, ties broken by
// id so repeated runs agree), with entries pre-marked Skipped where no rewrite
// is needed or possible. Commits outside the set are never touched. Fails
// with a PlanError when dest descends from a member of the set, which would
// create a cycle.
func BuildPlan(store dag.Store, set []dag.CommitID, dest dag.CommitID, opts PlanOptions) (*State, error) {
	if _, err := store.Resolve(dest); err != nil {
		return nil, err
	}

	members := dedup(set)
	if len(members) == 0 {
		return nil, replanterrors.NewPlanError("empty rebase set")
	}
	for _, m := range members {
		if _, err := store.Resolve(m); err != nil {
			return nil, err
		}
		ok, err := store.IsAncestor(m, dest)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, replanterrors.NewPlanError(
				"destination %s descends from %s", short(dest), short(m))
		}
	}

	ordered, err := topoSort(store, members)
	if err != nil {
		return nil, err
	}

	state := &State{
		OriginalWorkingParent: opts.WorkingParent,
		Destination:           dest,
		ExternalParent:        opts.ExternalParent,
		Collapse:              opts.Collapse,
		KeepOriginals:         opts.KeepOriginals,
		KeepBranchNames:       opts.KeepBranchNames,
	}
	for _, m := range ordered {
		status, err := initialStatus(store, m, dest)
		if err != nil {
			return nil, err
		}
		state.Entries = append(state.Entries, Entry{Original: m, Status: status})
	}
	return state, nil
}

// initialStatus pre-marks members that need no rewrite: a superseded commit
// whose replacement already sits under the destination is already in the
// destination, and one with no live replacement is obsolete and is dropped
// from new edges (its children re-parent to the nearest live rebased
// ancestor during execution).
func initialStatus(store dag.Store, m, dest dag.CommitID) (EntryStatus, error) {
	if !store.IsObsolete(m) {
		return Pending(), nil
	}
	succ, ok := store.Successor(m)
	if !ok {
		return Skipped(SkipObsolete), nil
	}
	reachable, err := store.IsAncestor(succ, dest)
	if err != nil {
		return EntryStatus{}, err
	}
	if reachable {
		return Skipped(SkipAlreadyInDestination), nil
	}
	return Skipped(SkipSuperseded), nil
}

// topoSort orders members ancestors-first. Edges are ancestry relations
// between members, including those running through commits outside the set.
func topoSort(store dag.Store, members []dag.CommitID) ([]dag.CommitID, error) {
	indegree := make(map[dag.CommitID]int, len(members))
	children := make(map[dag.CommitID][]dag.CommitID, len(members))
	for _, m := range members {
		indegree[m] = 0
	}
	for _, a := range members {
		for _, b := range members {
			if a == b {
				continue
			}
			ok, err := store.IsAncestor(a, b)
			if err != nil {
				return nil, err
			}
			if ok {
				children[a] = append(children[a], b)
				indegree[b]++
			}
		}
	}

	var ready []dag.CommitID
	for _, m := range members {
		if indegree[m] == 0 {
			ready = append(ready, m)
		}
	}

	var ordered []dag.CommitID
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return ready[i].String() < ready[j].String()
		})
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		for _, c := range children[next] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(ordered) != len(members) {
		// Ancestry is acyclic, so this only fires on a broken store.
		return nil, replanterrors.NewPlanError("rebase set contains an ancestry cycle")
	}
	return ordered, nil
}

func dedup(set []dag.CommitID) []dag.CommitID {
	seen := make(map[dag.CommitID]bool, len(set))
	var out []dag.CommitID
	for _, id := range set {
		if id == plumbing.ZeroHash || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func short(id dag.CommitID) string {
	return id.String()[:12]
}
