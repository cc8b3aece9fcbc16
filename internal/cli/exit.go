package cli

import (
	"errors"

	"github.com/replant-vcs/replant/internal/replanterrors"
)

// Exit statuses. A conflict pause is an expected suspension, not a failure,
// and gets its own status so scripts can tell the three outcomes apart.
const (
	ExitOK       = 0
	ExitFatal    = 1
	ExitConflict = 75 // EX_TEMPFAIL: resolve and rerun
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, replanterrors.ErrConflictPause) {
		return ExitConflict
	}
	return ExitFatal
}
