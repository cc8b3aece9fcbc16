package cli

import (
	"github.com/spf13/cobra"

	"github.com/replant-vcs/replant/internal/actions"
	"github.com/replant-vcs/replant/internal/runtime"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the in-progress rebase, if any",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext()
			if err != nil {
				return err
			}
			return actions.StatusAction(ctx)
		},
	}

	return cmd
}
