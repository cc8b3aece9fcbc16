package cli

import (
	"github.com/spf13/cobra"

	"github.com/replant-vcs/replant/internal/actions"
	"github.com/replant-vcs/replant/internal/runtime"
)

// newContinueCmd creates the continue command
func newContinueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Resume a rebase halted by a merge conflict",
		Long: `Resumes the in-progress rebase from its persisted state, re-entering the
loop at the first unprocessed commit. State files written by older clients in
the legacy layout resume the same way.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext()
			if err != nil {
				return err
			}
			return actions.ContinueAction(ctx)
		},
	}

	return cmd
}
