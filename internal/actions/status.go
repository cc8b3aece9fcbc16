package actions

import (
	"errors"

	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/replanterrors"
	"github.com/replant-vcs/replant/internal/runtime"
	"github.com/replant-vcs/replant/internal/tui"
)

// StatusAction reports the in-progress rebase, if any. Read-only: it does
// not take the repository lock.
func StatusAction(ctx *runtime.Context) error {
	splog := ctx.Splog

	state, err := ctx.Repo.StateFile().Load()
	if err != nil {
		if errors.Is(err, replanterrors.ErrNoRebaseInProgress) {
			splog.Info("no rebase in progress")
			return nil
		}
		return err
	}

	splog.Info("rebase in progress onto %s", tui.ColorDestination(state.Destination.String()[:12]))

	rebased, skipped := 0, 0
	for i := range state.Entries {
		e := &state.Entries[i]
		switch e.Status.Kind {
		case rebase.StatusRebased:
			rebased++
		case rebase.StatusSkipped:
			skipped++
		}
	}
	splog.Info("  %d entries: %d rebased, %d skipped, %d pending",
		len(state.Entries), rebased, skipped, state.PendingCount())

	if idx := state.FirstPending(); idx >= 0 {
		splog.Info("  next: %s", tui.ColorCommitID(state.Entries[idx].Original.String()[:12]))
		splog.Tip("run 'replant continue' to resume or 'replant abort' to cancel")
	}
	return nil
}
