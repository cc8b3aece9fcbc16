package actions

import (
	"errors"

	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/replanterrors"
	"github.com/replant-vcs/replant/internal/runtime"
	"github.com/replant-vcs/replant/internal/tui"
)

// AbortAction cancels the in-progress rebase: persisted state is discarded
// and the pre-rebase working-copy parent restored. Commits already rebased
// are left in the store unreferenced rather than rolled back.
func AbortAction(ctx *runtime.Context) error {
	splog := ctx.Splog

	release, err := ctx.Repo.Lock()
	if err != nil {
		return err
	}
	defer release()

	executor := rebase.NewExecutor(ctx.Repo.Store(), ctx.Merge, ctx.Repo, ctx.Repo.StateFile())
	restored, err := executor.Abort()
	if err != nil {
		if errors.Is(err, replanterrors.ErrNoRebaseInProgress) {
			splog.Info("no rebase in progress to abort")
			return nil
		}
		return err
	}

	if restored.IsZero() {
		splog.Info("rebase aborted")
	} else {
		splog.Info("rebase aborted, working copy restored to %s", tui.ColorCommitID(restored.String()[:12]))
	}
	return nil
}
