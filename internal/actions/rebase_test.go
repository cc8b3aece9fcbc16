package actions_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/replant-vcs/replant/internal/actions"
	"github.com/replant-vcs/replant/internal/merge"
	"github.com/replant-vcs/replant/internal/replanterrors"
	"github.com/replant-vcs/replant/internal/runtime"
	"github.com/replant-vcs/replant/testhelpers"
)

func newContext(t *testing.T) (*runtime.Context, *testhelpers.Scenario) {
	t.Helper()
	s := testhelpers.NewScenario(t)
	ctx := runtime.NewContext(s.Repo)
	ctx.Merge = testhelpers.UnionMerge{}
	ctx.Splog.SetQuiet(true)
	return ctx, s
}

func TestRebaseAction(t *testing.T) {
	t.Run("rebases a chain end to end", func(t *testing.T) {
		ctx, s := newContext(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root").
			Commit("b", "a")

		err := actions.RebaseAction(ctx, actions.RebaseOptions{
			Revisions:   []string{g.ID("a").String(), g.ID("b").String()},
			Destination: g.ID("dest").String(),
		})
		require.NoError(t, err)
		require.False(t, s.Repo.StateFile().Exists())

		// The working copy sits on the rebased tip, whose lineage now runs
		// through the destination.
		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.False(t, parent.IsZero())
		newB := g.Resolve(parent)
		newA := g.Resolve(newB.Parents[0])
		require.Equal(t, []plumbing.Hash{g.ID("dest")}, newA.Parents)
		require.True(t, g.Store.IsObsolete(g.ID("a")))
		require.True(t, g.Store.IsObsolete(g.ID("b")))
	})

	t.Run("rejects abbreviated commit ids", func(t *testing.T) {
		ctx, s := newContext(t)
		g := s.Graph.Commit("root").Commit("dest", "root").Commit("a", "root")

		err := actions.RebaseAction(ctx, actions.RebaseOptions{
			Revisions:   []string{g.ID("a").String()[:12]},
			Destination: g.ID("dest").String(),
		})
		require.ErrorIs(t, err, replanterrors.ErrPlan)
	})

	t.Run("pauses on conflict and leaves state behind", func(t *testing.T) {
		ctx, s := newContext(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root")
		ctx.Merge = &merge.Scripted{
			Inner:      testhelpers.UnionMerge{},
			ConflictOn: map[string]bool{g.Resolve(g.ID("a")).Content: true},
		}

		err := actions.RebaseAction(ctx, actions.RebaseOptions{
			Revisions:   []string{g.ID("a").String()},
			Destination: g.ID("dest").String(),
		})
		require.ErrorIs(t, err, replanterrors.ErrConflictPause)
		require.True(t, s.Repo.StateFile().Exists())

		// The lock was released on the pause path: continue can take it.
		ctx.Merge = testhelpers.UnionMerge{}
		require.NoError(t, actions.ContinueAction(ctx))
		require.False(t, s.Repo.StateFile().Exists())
	})
}

func TestContinueAction(t *testing.T) {
	t.Run("with nothing in progress", func(t *testing.T) {
		ctx, s := newContext(t)
		s.Graph.Commit("root")

		err := actions.ContinueAction(ctx)
		require.ErrorIs(t, err, replanterrors.ErrNoRebaseInProgress)
	})
}

func TestAbortAction(t *testing.T) {
	t.Run("restores the working copy", func(t *testing.T) {
		ctx, s := newContext(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root")
		require.NoError(t, s.Repo.SetParent(g.ID("a")))
		ctx.Merge = &merge.Scripted{
			Inner:      testhelpers.UnionMerge{},
			ConflictOn: map[string]bool{g.Resolve(g.ID("a")).Content: true},
		}

		err := actions.RebaseAction(ctx, actions.RebaseOptions{
			Revisions:   []string{g.ID("a").String()},
			Destination: g.ID("dest").String(),
		})
		require.ErrorIs(t, err, replanterrors.ErrConflictPause)

		require.NoError(t, actions.AbortAction(ctx))
		require.False(t, s.Repo.StateFile().Exists())

		parent, err := s.Repo.Parent()
		require.NoError(t, err)
		require.Equal(t, g.ID("a"), parent)
	})

	t.Run("with nothing in progress is a quiet no-op", func(t *testing.T) {
		ctx, s := newContext(t)
		s.Graph.Commit("root")

		require.NoError(t, actions.AbortAction(ctx))
	})
}

func TestStatusAction(t *testing.T) {
	t.Run("reports whether a rebase is in progress", func(t *testing.T) {
		ctx, s := newContext(t)
		g := s.Graph.
			Commit("root").
			Commit("dest", "root").
			Commit("a", "root")
		require.NoError(t, actions.StatusAction(ctx))

		ctx.Merge = &merge.Scripted{
			Inner:      testhelpers.UnionMerge{},
			ConflictOn: map[string]bool{g.Resolve(g.ID("a")).Content: true},
		}
		err := actions.RebaseAction(ctx, actions.RebaseOptions{
			Revisions:   []string{g.ID("a").String()},
			Destination: g.ID("dest").String(),
		})
		require.ErrorIs(t, err, replanterrors.ErrConflictPause)

		require.NoError(t, actions.StatusAction(ctx))
	})
}
