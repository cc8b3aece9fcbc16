package actions

import (
	"github.com/replant-vcs/replant/internal/runtime"
)

// ContinueAction resumes the most recent rebase halted by a conflict. The
// persisted state may have been written by this client or by an older one in
// the legacy layout; both resume transparently.
func ContinueAction(ctx *runtime.Context) error {
	release, err := ctx.Repo.Lock()
	if err != nil {
		return err
	}
	defer release()

	executor := newExecutor(ctx)
	res, err := executor.Resume()
	return report(ctx, res, err)
}
