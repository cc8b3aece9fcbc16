// Package replanterrors provides sentinel errors and custom error types for
// the replant application. Use errors.Is() and errors.As() to check for
// specific error types.
package replanterrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrNotFound indicates that a commit id does not resolve in the graph
	ErrNotFound = errors.New("commit not found")

	// ErrPlan indicates that a rebase request is invalid (e.g. would create a cycle)
	ErrPlan = errors.New("invalid rebase plan")

	// ErrStateFormat indicates that a persisted state file is unparseable
	ErrStateFormat = errors.New("malformed rebase state")

	// ErrStateCorrupt indicates a structurally valid but referentially
	// inconsistent state file
	ErrStateCorrupt = errors.New("corrupt rebase state")

	// ErrConflictPause indicates an expected suspension on a merge conflict,
	// not a failure
	ErrConflictPause = errors.New("rebase paused on conflict")

	// ErrMergeEngine indicates that the merge collaborator failed outright
	ErrMergeEngine = errors.New("merge engine failure")

	// ErrLockContention indicates that another operation holds the repository lock
	ErrLockContention = errors.New("repository lock held by another operation")

	// ErrNoRebaseInProgress indicates that no rebase state exists to continue or abort
	ErrNoRebaseInProgress = errors.New("no rebase in progress")
)

// CommitNotFoundError represents an error when a commit id does not resolve
type CommitNotFoundError struct {
	ID string
}

func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("commit %s does not exist", e.ID)
}

// Is returns true if the target error is ErrNotFound
func (e *CommitNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewCommitNotFoundError creates a new CommitNotFoundError
func NewCommitNotFoundError(id string) *CommitNotFoundError {
	return &CommitNotFoundError{ID: id}
}

// PlanError represents an invalid rebase request
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("cannot rebase: %s", e.Reason)
}

// Is returns true if the target error is ErrPlan
func (e *PlanError) Is(target error) bool {
	return target == ErrPlan
}

// NewPlanError creates a new PlanError
func NewPlanError(format string, args ...interface{}) *PlanError {
	return &PlanError{Reason: fmt.Sprintf(format, args...)}
}

// StateFormatError represents an unparseable legacy state file
type StateFormatError struct {
	Line   int // 1-based line number, 0 when not line-specific
	Reason string
}

func (e *StateFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed rebase state at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed rebase state: %s", e.Reason)
}

// Is returns true if the target error is ErrStateFormat
func (e *StateFormatError) Is(target error) bool {
	return target == ErrStateFormat
}

// NewStateFormatError creates a new StateFormatError
func NewStateFormatError(line int, format string, args ...interface{}) *StateFormatError {
	return &StateFormatError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// StateCorruptError represents a state file that parses but references
// commits absent from the current graph
type StateCorruptError struct {
	ID     string
	Reason string
}

func (e *StateCorruptError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("corrupt rebase state: %s (commit %s)", e.Reason, e.ID)
	}
	return fmt.Sprintf("corrupt rebase state: %s", e.Reason)
}

// Is returns true if the target error is ErrStateCorrupt
func (e *StateCorruptError) Is(target error) bool {
	return target == ErrStateCorrupt
}

// NewStateCorruptError creates a new StateCorruptError
func NewStateCorruptError(id string, reason string) *StateCorruptError {
	return &StateCorruptError{ID: id, Reason: reason}
}

// ConflictPauseError represents the expected suspension of a rebase when the
// merge of one entry produced conflicts. The rebase state remains persisted
// with the conflicted entry still pending; resolve and continue to proceed.
type ConflictPauseError struct {
	Original string
	Message  string
}

func (e *ConflictPauseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("merge conflict rebasing %s: %s", e.Original, e.Message)
	}
	return fmt.Sprintf("merge conflict rebasing %s", e.Original)
}

// Is returns true if the target error is ErrConflictPause
func (e *ConflictPauseError) Is(target error) bool {
	return target == ErrConflictPause
}

// NewConflictPauseError creates a new ConflictPauseError
func NewConflictPauseError(original string, message string) *ConflictPauseError {
	return &ConflictPauseError{Original: original, Message: message}
}

// MergeEngineError represents a hard failure of the merge collaborator on a
// single entry. The entry stays pending; already-rebased entries are unaffected.
type MergeEngineError struct {
	Original string
	Err      error
}

func (e *MergeEngineError) Error() string {
	return fmt.Sprintf("merge engine failed on %s: %v", e.Original, e.Err)
}

func (e *MergeEngineError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrMergeEngine
func (e *MergeEngineError) Is(target error) bool {
	return target == ErrMergeEngine
}

// NewMergeEngineError creates a new MergeEngineError
func NewMergeEngineError(original string, err error) *MergeEngineError {
	return &MergeEngineError{Original: original, Err: err}
}

// LockContentionError represents a failure to acquire the repository lock
type LockContentionError struct {
	Path string
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("another operation is in progress (lock %s is held)", e.Path)
}

// Is returns true if the target error is ErrLockContention
func (e *LockContentionError) Is(target error) bool {
	return target == ErrLockContention
}

// NewLockContentionError creates a new LockContentionError
func NewLockContentionError(path string) *LockContentionError {
	return &LockContentionError{Path: path}
}
