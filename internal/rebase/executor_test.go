package rebase_test

import (
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/replant-vcs/replant/internal/dag"
	"github.com/replant-vcs/replant/internal/merge"
	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/replanterrors"
	"github.com/replant-vcs/replant/testhelpers"
)

// chainScenario builds root -> a -> b -> c with dest as a sibling of a.
func chainScenario(t *testing.T) *testhelpers.Scenario {
	s := testhelpers.NewScenario(t)
	s.Graph.
		Commit("root").
		Commit("dest", "root").
		Commit("a", "root").
		Commit("b", "a").
		Commit("c", "b")
	return s
}

func mappingMap(res *rebase.Result) map[dag.CommitID]dag.CommitID {
	out := make(map[dag.CommitID]dag.CommitID)
	for _, m := range res.Mappings {
		out[m.Original] = m.New
	}
	return out
}

func TestExecutorBegin(t *testing.T) {
	t.Run("rebases a linear chain onto the destination", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b", "c"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)

		x := s.Executor(testhelpers.UnionMerge{})
		res, err := x.Begin(state)
		require.NoError(t, err)
		require.Equal(t, rebase.PhaseCompleted, x.Phase())
		require.False(t, res.NothingToDo)
		require.Len(t, res.Mappings, 3)

		mapped := mappingMap(res)
		newA := g.Resolve(mapped[g.ID("a")])
		newB := g.Resolve(mapped[g.ID("b")])
		newC := g.Resolve(mapped[g.ID("c")])
		require.Equal(t, []dag.CommitID{g.ID("dest")}, newA.Parents)
		require.Equal(t, []dag.CommitID{newA.ID}, newB.Parents)
		require.Equal(t, []dag.CommitID{newB.ID}, newC.Parents)
		require.Equal(t, "a", newA.Meta.Message)

		// Working copy moved to the rebased tip, state cleared, originals superseded.
		require.Equal(t, newC.ID, res.Tip)
		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.Equal(t, newC.ID, parent)
		require.False(t, s.Repo.StateFile().Exists())
		for _, name := range []string{"a", "b", "c"} {
			require.True(t, g.Store.IsObsolete(g.ID(name)))
			succ, ok := g.Store.Successor(g.ID(name))
			require.True(t, ok)
			require.Equal(t, mapped[g.ID(name)], succ)
		}
	})

	t.Run("keep leaves originals alive", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("dest"), rebase.PlanOptions{KeepOriginals: true})
		require.NoError(t, err)

		_, err = s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)
		require.False(t, g.Store.IsObsolete(g.ID("a")))
	})

	t.Run("branch names are dropped unless kept", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)
		require.Equal(t, "", g.Resolve(res.Mappings[0].New).Meta.Branch)
	})

	t.Run("branch names survive with keep-branches", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("dest"), rebase.PlanOptions{KeepBranchNames: true})
		require.NoError(t, err)
		res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)
		require.Equal(t, "a", g.Resolve(res.Mappings[0].New).Meta.Branch)
	})

	t.Run("pauses on conflict with the entry still pending", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b", "c"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)

		engine := &merge.Scripted{
			Inner:      testhelpers.UnionMerge{},
			ConflictOn: map[string]bool{g.Resolve(g.ID("b")).Content: true},
		}
		x := s.Executor(engine)
		_, err = x.Begin(state)
		require.ErrorIs(t, err, replanterrors.ErrConflictPause)
		require.Equal(t, rebase.PhasePaused, x.Phase())

		// Persisted state shows a rebased, b and c pending.
		saved, loadErr := s.Repo.StateFile().Load()
		require.NoError(t, loadErr)
		require.Equal(t, rebase.StatusRebased, saved.Entries[0].Status.Kind)
		require.Equal(t, rebase.Pending(), saved.Entries[1].Status)
		require.Equal(t, rebase.Pending(), saved.Entries[2].Status)

		// Resolve (stop forcing the conflict) and resume: the remaining two
		// entries complete without redoing a.
		resumed := s.Executor(testhelpers.UnionMerge{})
		res, err := resumed.Resume()
		require.NoError(t, err)
		require.Len(t, res.Mappings, 3)
		require.Equal(t, saved.Entries[0].Status.NewID, mappingMap(res)[g.ID("a")])
		require.False(t, s.Repo.StateFile().Exists())
	})

	t.Run("merge engine failure leaves the entry pending", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)

		boom := errors.New("backend exploded")
		engine := &merge.Scripted{
			Inner:  testhelpers.UnionMerge{},
			FailOn: map[string]error{g.Resolve(g.ID("b")).Content: boom},
		}
		_, err = s.Executor(engine).Begin(state)
		require.ErrorIs(t, err, replanterrors.ErrMergeEngine)
		require.ErrorIs(t, err, boom)

		saved, loadErr := s.Repo.StateFile().Load()
		require.NoError(t, loadErr)
		require.Equal(t, rebase.StatusRebased, saved.Entries[0].Status.Kind)
		require.Equal(t, rebase.Pending(), saved.Entries[1].Status)
	})

	t.Run("refuses to start over an in-progress rebase", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		s.SaveState(state)

		_, err = s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.Error(t, err)
	})

	t.Run("identical inputs produce identical mappings", func(t *testing.T) {
		run := func() []rebase.Mapping {
			s := chainScenario(t)
			g := s.Graph
			state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b", "c"), g.ID("dest"), rebase.PlanOptions{})
			require.NoError(t, err)
			res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
			require.NoError(t, err)
			return res.Mappings
		}
		require.Equal(t, run(), run())
	})
}

func TestExecutorMergeCommits(t *testing.T) {
	t.Run("second parent inside the set is remapped", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("x", "root").
			Commit("m", "a", "x")

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "x", "m"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)

		mapped := mappingMap(res)
		newM := g.Resolve(mapped[g.ID("m")])
		require.Equal(t, []dag.CommitID{mapped[g.ID("a")], mapped[g.ID("x")]}, newM.Parents)
	})

	t.Run("second parent outside the set is kept", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("x", "root").
			Commit("m", "a", "x")

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "m"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)

		newM := g.Resolve(mappingMap(res)[g.ID("m")])
		require.Len(t, newM.Parents, 2)
		require.Equal(t, g.ID("x"), newM.Parents[1])
	})

	t.Run("external parent replaces an outside second parent", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("x", "root").
			Commit("y", "root").
			Commit("m", "a", "x")

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "m"), g.ID("dest"), rebase.PlanOptions{
			ExternalParent: g.ID("y"),
		})
		require.NoError(t, err)
		res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)

		newM := g.Resolve(mappingMap(res)[g.ID("m")])
		require.Equal(t, g.ID("y"), newM.Parents[1])
	})
}

func TestExecutorCollapse(t *testing.T) {
	t.Run("folds the set into one commit on the destination", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b", "c"), g.ID("dest"), rebase.PlanOptions{Collapse: true})
		require.NoError(t, err)
		res, err := s.Executor(testhelpers.UnionMerge{}).Begin(state)
		require.NoError(t, err)

		require.Len(t, res.Mappings, 3)
		collapsed := res.Mappings[0].New
		for _, m := range res.Mappings {
			require.Equal(t, collapsed, m.New)
		}

		c := g.Resolve(collapsed)
		require.Equal(t, []dag.CommitID{g.ID("dest")}, c.Parents)
		require.Contains(t, c.Meta.Message, "a")
		require.Contains(t, c.Meta.Message, "b")
		require.Contains(t, c.Meta.Message, "c")
		require.False(t, s.Repo.StateFile().Exists())

		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.Equal(t, collapsed, parent)
	})
}

func TestExecutorResume(t *testing.T) {
	// The drawdag below mirrors a state file written by a legacy client that
	// had selected {E, B, D, G, H} for rebase onto Z before it was
	// interrupted, with A already folded into the destination and F, C
	// obsolete:
	//
	//	   D H
	//	   | |
	//	   C G
	//	   | |
	//	   B F
	//	   | |
	//	 Z A E
	//	  \|/
	//	   R
	legacyScenario := func(t *testing.T) (*testhelpers.Scenario, *rebase.State) {
		s := testhelpers.NewScenario(t)
		s.Graph.
			Commit("R").
			Commit("Z", "R").
			Commit("A", "R").
			Commit("E", "R").
			Commit("B", "A").
			Commit("C", "B").
			Commit("D", "C").
			Commit("F", "E").
			Commit("G", "F").
			Commit("H", "G")
		g := s.Graph

		state := &rebase.State{
			Destination: g.ID("Z"),
			Entries: []rebase.Entry{
				{Original: g.ID("A"), Status: rebase.Skipped(rebase.SkipAlreadyInDestination)},
				{Original: g.ID("E"), Status: rebase.Pending()},
				{Original: g.ID("B"), Status: rebase.Pending()},
				{Original: g.ID("F"), Status: rebase.Skipped(rebase.SkipObsolete)},
				{Original: g.ID("C"), Status: rebase.Skipped(rebase.SkipObsolete)},
				{Original: g.ID("D"), Status: rebase.Pending()},
				{Original: g.ID("G"), Status: rebase.Pending()},
				{Original: g.ID("H"), Status: rebase.Pending()},
			},
		}
		s.SaveState(state)
		return s, state
	}

	t.Run("resumes a legacy state in stored order", func(t *testing.T) {
		s, _ := legacyScenario(t)
		g := s.Graph

		x := s.Executor(testhelpers.UnionMerge{})
		var order []string
		x.Progress = func(c *dag.Commit) {
			order = append(order, g.Name(c.ID))
		}

		res, err := x.Resume()
		require.NoError(t, err)
		require.Equal(t, []string{"E", "B", "D", "G", "H"}, order)
		require.Len(t, res.Mappings, 5)

		// Skipped entries contribute no new commits or edges; children of
		// the obsolete ones re-parent to the nearest live rebased ancestor.
		mapped := mappingMap(res)
		require.Equal(t, []dag.CommitID{g.ID("Z")}, g.Resolve(mapped[g.ID("E")]).Parents)
		require.Equal(t, []dag.CommitID{g.ID("Z")}, g.Resolve(mapped[g.ID("B")]).Parents)
		require.Equal(t, []dag.CommitID{mapped[g.ID("B")]}, g.Resolve(mapped[g.ID("D")]).Parents)
		require.Equal(t, []dag.CommitID{mapped[g.ID("E")]}, g.Resolve(mapped[g.ID("G")]).Parents)
		require.Equal(t, []dag.CommitID{mapped[g.ID("G")]}, g.Resolve(mapped[g.ID("H")]).Parents)

		for _, name := range []string{"E", "B", "D", "G", "H"} {
			require.True(t, g.Store.IsObsolete(g.ID(name)))
		}
		require.False(t, s.Repo.StateFile().Exists())

		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.Equal(t, mapped[g.ID("H")], parent)
	})

	t.Run("a state with zero entries completes immediately", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.Commit("root").Commit("dest", "root")

		s.SaveState(&rebase.State{Destination: g.ID("dest")})

		x := s.Executor(testhelpers.UnionMerge{})
		res, err := x.Resume()
		require.NoError(t, err)
		require.True(t, res.NothingToDo)
		require.Equal(t, rebase.PhaseCompleted, x.Phase())
		require.False(t, s.Repo.StateFile().Exists())
	})

	t.Run("an already-completed state is a no-op", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("newA", "dest")

		s.SaveState(&rebase.State{
			Destination: g.ID("dest"),
			Entries: []rebase.Entry{
				{Original: g.ID("a"), Status: rebase.Rebased(g.ID("newA"))},
			},
		})

		res, err := s.Executor(testhelpers.UnionMerge{}).Resume()
		require.NoError(t, err)
		require.True(t, res.NothingToDo)
		require.False(t, s.Repo.StateFile().Exists())
	})

	t.Run("a state referencing an unknown commit is corrupt", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("wc", "root")
		require.NoError(t, s.Repo.SetParent(g.ID("wc")))

		s.SaveState(&rebase.State{
			Destination: g.ID("dest"),
			Entries: []rebase.Entry{
				{Original: plumbing.NewHash("21a6c45028857f500f56ae84fbf40689c429305b"), Status: rebase.Pending()},
			},
		})

		_, err := s.Executor(testhelpers.UnionMerge{}).Resume()
		require.ErrorIs(t, err, replanterrors.ErrStateCorrupt)

		// Nothing was mutated: state stays for diagnosis, working copy untouched.
		require.True(t, s.Repo.StateFile().Exists())
		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.Equal(t, g.ID("wc"), parent)
	})

	t.Run("an unresolvable destination is corrupt", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		s.Graph.Commit("root")

		s.SaveState(&rebase.State{
			Destination: plumbing.NewHash("f424eb6a8c01c4a0c0fba9f863f79b3eb5b4b69f"),
		})

		_, err := s.Executor(testhelpers.UnionMerge{}).Resume()
		require.ErrorIs(t, err, replanterrors.ErrStateCorrupt)
	})

	t.Run("an entry ordered before its ancestor is corrupt", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("b", "a")

		s.SaveState(&rebase.State{
			Destination: g.ID("dest"),
			Entries: []rebase.Entry{
				{Original: g.ID("b"), Status: rebase.Pending()},
				{Original: g.ID("a"), Status: rebase.Pending()},
			},
		})

		_, err := s.Executor(testhelpers.UnionMerge{}).Resume()
		require.ErrorIs(t, err, replanterrors.ErrStateCorrupt)
	})

	t.Run("a missing state file is not a rebase in progress", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		s.Graph.Commit("root")

		_, err := s.Executor(testhelpers.UnionMerge{}).Resume()
		require.ErrorIs(t, err, replanterrors.ErrNoRebaseInProgress)
	})

	t.Run("a malformed state file is fatal", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		s.Graph.Commit("root")
		s.WriteRawState("not a state file\n")

		_, err := s.Executor(testhelpers.UnionMerge{}).Resume()
		require.ErrorIs(t, err, replanterrors.ErrStateFormat)
	})
}

func TestExecutorAbort(t *testing.T) {
	t.Run("restores the working copy and clears state", func(t *testing.T) {
		s := chainScenario(t)
		g := s.Graph
		require.NoError(t, s.Repo.SetParent(g.ID("c")))

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b", "c"), g.ID("dest"), rebase.PlanOptions{
			WorkingParent: g.ID("c"),
		})
		require.NoError(t, err)

		engine := &merge.Scripted{
			Inner:      testhelpers.UnionMerge{},
			ConflictOn: map[string]bool{g.Resolve(g.ID("b")).Content: true},
		}
		x := s.Executor(engine)
		_, err = x.Begin(state)
		require.ErrorIs(t, err, replanterrors.ErrConflictPause)

		restored, err := x.Abort()
		require.NoError(t, err)
		require.Equal(t, g.ID("c"), restored)
		require.Equal(t, rebase.PhaseAborted, x.Phase())
		require.False(t, s.Repo.StateFile().Exists())

		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.Equal(t, g.ID("c"), parent)
	})

	t.Run("aborting with no state in progress fails", func(t *testing.T) {
		s := testhelpers.NewScenario(t)
		s.Graph.Commit("root")

		_, err := s.Executor(testhelpers.UnionMerge{}).Abort()
		require.ErrorIs(t, err, replanterrors.ErrNoRebaseInProgress)
	})
}
