package actions

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/replant-vcs/replant/internal/dag"
	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/replanterrors"
	"github.com/replant-vcs/replant/internal/runtime"
	"github.com/replant-vcs/replant/internal/tui"
)

// RebaseOptions contains options for the rebase command
type RebaseOptions struct {
	Revisions       []string
	Destination     string
	ExternalParent  string
	Collapse        bool
	KeepOriginals   bool
	KeepBranchNames bool
}

// RebaseAction plans and starts a new rebase of the given commits onto the
// destination, running until completion or the first conflict.
func RebaseAction(ctx *runtime.Context, opts RebaseOptions) error {
	store := ctx.Repo.Store()

	dest, err := parseCommitID(opts.Destination)
	if err != nil {
		return err
	}
	var set []dag.CommitID
	for _, rev := range opts.Revisions {
		id, err := parseCommitID(rev)
		if err != nil {
			return err
		}
		set = append(set, id)
	}
	external := plumbing.ZeroHash
	if opts.ExternalParent != "" {
		if external, err = parseCommitID(opts.ExternalParent); err != nil {
			return err
		}
	}

	workingParent, err := ctx.Repo.Parent()
	if err != nil {
		return err
	}

	state, err := rebase.BuildPlan(store, set, dest, rebase.PlanOptions{
		WorkingParent:   workingParent,
		ExternalParent:  external,
		Collapse:        opts.Collapse,
		KeepOriginals:   opts.KeepOriginals,
		KeepBranchNames: opts.KeepBranchNames,
	})
	if err != nil {
		return err
	}

	release, err := ctx.Repo.Lock()
	if err != nil {
		return err
	}
	defer release()

	executor := newExecutor(ctx)
	res, err := executor.Begin(state)
	return report(ctx, res, err)
}

func newExecutor(ctx *runtime.Context) *rebase.Executor {
	executor := rebase.NewExecutor(ctx.Repo.Store(), ctx.Merge, ctx.Repo, ctx.Repo.StateFile())
	executor.Progress = func(c *dag.Commit) {
		ctx.Splog.Info("rebasing %s %q", tui.ColorCommitID(c.ID.String()[:12]), summary(c.Meta.Message))
	}
	return executor
}

// report turns an executor outcome into user-visible output. A conflict
// pause is reported with resume instructions and propagated so the CLI can
// exit with the dedicated status; fatal errors pass through untouched.
func report(ctx *runtime.Context, res *rebase.Result, err error) error {
	splog := ctx.Splog
	if err != nil {
		var pause *replanterrors.ConflictPauseError
		if errors.As(err, &pause) {
			splog.Warn("merge conflict while rebasing %s", tui.ColorCommitID(pause.Original))
			splog.Tip("resolve the conflict, then run 'replant continue' (or 'replant abort' to give up)")
		}
		return err
	}

	if res.NothingToDo {
		splog.Info("nothing to rebase")
		return nil
	}
	for _, m := range res.Mappings {
		splog.Debug("rebased %s -> %s", m.Original, m.New)
	}
	splog.Info("rebase complete: %d commits now under %s",
		len(res.Mappings), tui.ColorDestination(res.Tip.String()[:12]))
	return nil
}

func parseCommitID(s string) (dag.CommitID, error) {
	s = strings.TrimSpace(s)
	if len(s) != 40 {
		return plumbing.ZeroHash, replanterrors.NewPlanError("%q is not a full 40-character commit id", s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return plumbing.ZeroHash, replanterrors.NewPlanError("%q is not a valid commit id", s)
	}
	return plumbing.NewHash(s), nil
}

func summary(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
