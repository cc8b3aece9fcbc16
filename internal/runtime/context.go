// Package runtime provides the execution context for replant commands.
//
// It encapsulates shared dependencies needed by actions: the repository
// handle, the merge engine, the logger, and loaded configuration.
package runtime

import (
	"fmt"
	"os"

	"github.com/replant-vcs/replant/internal/config"
	"github.com/replant-vcs/replant/internal/merge"
	"github.com/replant-vcs/replant/internal/repo"
	"github.com/replant-vcs/replant/internal/tui"
)

// Context provides access to the repository, merge engine, and output for
// commands.
type Context struct {
	Repo   *repo.Repo
	Merge  merge.Engine
	Splog  *tui.Splog
	Config *config.Config
}

// NewContext creates a context over an already-open repository.
func NewContext(r *repo.Repo) *Context {
	return &Context{
		Repo:  r,
		Merge: merge.Trivial{},
		Splog: tui.NewSplog(),
	}
}

// GetContext opens the repository at the working directory and assembles the
// command context from it and its configuration.
func GetContext() (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return nil, err
	}

	r, err := repo.OpenWithStateDir(wd, cfg.StateDir)
	if err != nil {
		return nil, err
	}

	splog, err := tui.NewSplogWithConfig(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	tui.SetColorMode(cfg.Color)

	return &Context{
		Repo:   r,
		Merge:  merge.Trivial{},
		Splog:  splog,
		Config: cfg,
	}, nil
}
