// Package actions provides high-level business logic for CLI commands.
//
// Each action corresponds to a replant command (rebase, continue, abort,
// status) and orchestrates operations across the repo, rebase, and merge
// packages.
//
// Key patterns:
//   - Actions accept runtime.Context which provides the Repo, Splog, and merge engine
//   - Actions are stateless - durable state lives in the rebase state file
//   - The repository lock is acquired here and released on every exit path
package actions
