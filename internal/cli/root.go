// Package cli wires the replant commands together with cobra.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "replant",
		Short: "Replant moves sets of commits onto new destinations, resumably",
		Long: `Replant rebases an explicit set of commits onto a new destination commit,
creating new immutable commit objects while preserving their relative
topology. A rebase interrupted by a merge conflict (or a crash) persists its
state and resumes exactly where it stopped, including state files written by
older clients.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	rootCmd.AddCommand(newRebaseCmd())
	rootCmd.AddCommand(newContinueCmd())
	rootCmd.AddCommand(newAbortCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}
