package cli

import (
	"github.com/spf13/cobra"

	"github.com/replant-vcs/replant/internal/actions"
	"github.com/replant-vcs/replant/internal/runtime"
)

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Cancel the in-progress rebase",
		Long: `Cancels the in-progress rebase: persisted state is discarded and the
working copy is restored to its pre-rebase parent. Commits that were already
rebased stay in the store unreferenced; they are not rolled back.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext()
			if err != nil {
				return err
			}
			return actions.AbortAction(ctx)
		},
	}

	return cmd
}
