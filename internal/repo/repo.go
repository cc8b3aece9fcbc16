// Package repo provides the repository handle: where rebase state lives on
// disk, the working-copy parent pointer, and the repository-level exclusive
// lock that serializes rewriting operations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/gofrs/flock"

	"github.com/replant-vcs/replant/internal/dag"
	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/replanterrors"
)

const (
	gitStateDirName   = "replant"
	lockFileName      = "lock"
	workingParentFile = "workingparent"
)

// Repo is a handle on a repository: its commit store, its state directory,
// and its lock.
type Repo struct {
	root     string
	stateDir string
	store    dag.Store
}

// Open opens the git repository at root and layers the replant state
// directory inside its .git directory.
func Open(root string) (*Repo, error) {
	return OpenWithStateDir(root, "")
}

// OpenWithStateDir opens the git repository at root with an explicit state
// directory, used when configuration overrides the default location.
func OpenWithStateDir(root, stateDir string) (*Repo, error) {
	gitRepo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("not a git repository at %s: %w", root, err)
	}
	if stateDir == "" {
		stateDir = filepath.Join(root, ".git", gitStateDirName)
	}
	return New(root, stateDir, dag.NewGitStore(gitRepo))
}

// New creates a repository handle over an explicit commit store and state
// directory. Used directly by tests and by embedders with their own stores.
func New(root, stateDir string, store dag.Store) (*Repo, error) {
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Repo{root: root, stateDir: stateDir, store: store}, nil
}

// Root returns the repository root path.
func (r *Repo) Root() string {
	return r.root
}

// Store returns the commit store.
func (r *Repo) Store() dag.Store {
	return r.store
}

// StateFile returns the handle for the persisted rebase state.
func (r *Repo) StateFile() *rebase.StateFile {
	return rebase.NewStateFile(r.stateDir)
}

// Lock acquires the repository-level exclusive lock and returns a release
// function. The lock is held only for the running phase of a rewrite; every
// exit path (success, pause, error) must release it, so callers defer the
// release immediately. Read-only operations do not take the lock.
func (r *Repo) Lock() (func(), error) {
	lockPath := filepath.Join(r.stateDir, lockFileName)
	flk := flock.New(lockPath)
	locked, err := flk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire repository lock: %w", err)
	}
	if !locked {
		return nil, replanterrors.NewLockContentionError(lockPath)
	}
	return func() {
		_ = flk.Unlock()
	}, nil
}

// Parent returns the commit the working copy is checked out at. Zero when no
// parent has been recorded yet.
func (r *Repo) Parent() (dag.CommitID, error) {
	data, err := os.ReadFile(filepath.Join(r.stateDir, workingParentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, fmt.Errorf("failed to read working-copy parent: %w", err)
	}
	return plumbing.NewHash(strings.TrimSpace(string(data))), nil
}

// SetParent moves the working-copy parent pointer to the given commit.
func (r *Repo) SetParent(id dag.CommitID) error {
	path := filepath.Join(r.stateDir, workingParentFile)
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to record working-copy parent: %w", err)
	}
	return nil
}
