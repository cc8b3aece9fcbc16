package cli

import (
	"github.com/spf13/cobra"

	"github.com/replant-vcs/replant/internal/actions"
	"github.com/replant-vcs/replant/internal/runtime"
)

// newRebaseCmd creates the rebase command
func newRebaseCmd() *cobra.Command {
	var (
		revisions    []string
		destination  string
		external     string
		collapse     bool
		keep         bool
		keepBranches bool
	)

	cmd := &cobra.Command{
		Use:   "rebase",
		Short: "Move a set of commits onto a new destination commit",
		Long: `Moves the commits given with --rev onto the destination commit, rewriting
them as new commits with remapped parents. Commits outside the set are never
touched. On a merge conflict the operation pauses with its state persisted;
resolve the conflict and run 'replant continue'.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext()
			if err != nil {
				return err
			}

			return actions.RebaseAction(ctx, actions.RebaseOptions{
				Revisions:       revisions,
				Destination:     destination,
				ExternalParent:  external,
				Collapse:        collapse,
				KeepOriginals:   keep,
				KeepBranchNames: keepBranches,
			})
		},
	}

	cmd.Flags().StringSliceVarP(&revisions, "rev", "r", nil, "Commit to rebase (repeatable)")
	cmd.Flags().StringVarP(&destination, "dest", "d", "", "Destination commit")
	cmd.Flags().StringVar(&external, "external-parent", "", "Second parent for merges pulling from outside the set")
	cmd.Flags().BoolVar(&collapse, "collapse", false, "Collapse the whole set into a single commit")
	cmd.Flags().BoolVarP(&keep, "keep", "k", false, "Keep the original commits instead of superseding them")
	cmd.Flags().BoolVar(&keepBranches, "keep-branches", false, "Preserve branch names on the rebased copies")
	_ = cmd.MarkFlagRequired("rev")
	_ = cmd.MarkFlagRequired("dest")

	return cmd
}
