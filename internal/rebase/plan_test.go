package rebase_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/replanterrors"
	"github.com/replant-vcs/replant/testhelpers"
)

func TestBuildPlan(t *testing.T) {
	t.Run("orders ancestors before descendants", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("b", "a").
			Commit("c", "b")

		state, err := rebase.BuildPlan(g.Store, g.IDs("c", "a", "b"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)

		require.Len(t, state.Entries, 3)
		require.Equal(t, g.ID("a"), state.Entries[0].Original)
		require.Equal(t, g.ID("b"), state.Entries[1].Original)
		require.Equal(t, g.ID("c"), state.Entries[2].Original)
		for i := range state.Entries {
			require.Equal(t, rebase.Pending(), state.Entries[i].Status)
		}
	})

	t.Run("orders across gaps of outside commits", func(t *testing.T) {
		// a and c are in the set; b between them is not.
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("b", "a").
			Commit("c", "b")

		state, err := rebase.BuildPlan(g.Store, g.IDs("c", "a"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		require.Equal(t, g.ID("a"), state.Entries[0].Original)
		require.Equal(t, g.ID("c"), state.Entries[1].Original)
	})

	t.Run("fails when destination descends from a member", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("a", "root").
			Commit("dest", "a")

		_, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("dest"), rebase.PlanOptions{})
		require.ErrorIs(t, err, replanterrors.ErrPlan)
	})

	t.Run("fails when destination is a member", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("a", "root")

		_, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("a"), rebase.PlanOptions{})
		require.ErrorIs(t, err, replanterrors.ErrPlan)
	})

	t.Run("fails on an empty set", func(t *testing.T) {
		g := testhelpers.NewGraph(t).Commit("dest")

		_, err := rebase.BuildPlan(g.Store, nil, g.ID("dest"), rebase.PlanOptions{})
		require.ErrorIs(t, err, replanterrors.ErrPlan)
	})

	t.Run("fails on an unknown member", func(t *testing.T) {
		g := testhelpers.NewGraph(t).Commit("dest")

		unknown := plumbing.NewHash("21a6c45028857f500f56ae84fbf40689c429305b")
		_, err := rebase.BuildPlan(g.Store, []plumbing.Hash{unknown}, g.ID("dest"), rebase.PlanOptions{})
		require.ErrorIs(t, err, replanterrors.ErrNotFound)
	})

	t.Run("deduplicates the set", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root")

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "a", "a"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		require.Len(t, state.Entries, 1)
	})

	t.Run("pre-marks obsolete members with no successor", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("b", "a")
		require.NoError(t, g.Store.MarkSuperseded(g.ID("a"), plumbing.ZeroHash))

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		require.Equal(t, rebase.Skipped(rebase.SkipObsolete), state.Entries[0].Status)
		require.Equal(t, rebase.Pending(), state.Entries[1].Status)
	})

	t.Run("pre-marks members whose successor sits under the destination", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("aCopy", "root").
			Commit("dest", "aCopy").
			Commit("a", "root").
			Commit("b", "a")
		require.NoError(t, g.Store.MarkSuperseded(g.ID("a"), g.ID("aCopy")))

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		require.Equal(t, rebase.Skipped(rebase.SkipAlreadyInDestination), state.Entries[0].Status)
	})

	t.Run("pre-marks superseded members whose successor is elsewhere", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("dest", "root").
			Commit("aCopy", "root").
			Commit("a", "root").
			Commit("b", "a")
		require.NoError(t, g.Store.MarkSuperseded(g.ID("a"), g.ID("aCopy")))

		state, err := rebase.BuildPlan(g.Store, g.IDs("a", "b"), g.ID("dest"), rebase.PlanOptions{})
		require.NoError(t, err)
		require.Equal(t, rebase.Skipped(rebase.SkipSuperseded), state.Entries[0].Status)
	})

	t.Run("records the operation parameters", func(t *testing.T) {
		g := testhelpers.NewGraph(t).
			Commit("root").
			Commit("dest", "root").
			Commit("wc", "root").
			Commit("a", "root")

		state, err := rebase.BuildPlan(g.Store, g.IDs("a"), g.ID("dest"), rebase.PlanOptions{
			WorkingParent:   g.ID("wc"),
			Collapse:        true,
			KeepOriginals:   true,
			KeepBranchNames: true,
		})
		require.NoError(t, err)
		require.Equal(t, g.ID("wc"), state.OriginalWorkingParent)
		require.Equal(t, g.ID("dest"), state.Destination)
		require.True(t, state.Collapse)
		require.True(t, state.KeepOriginals)
		require.True(t, state.KeepBranchNames)
	})
}
