package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replant-vcs/replant/internal/merge"
	"github.com/replant-vcs/replant/internal/rebase"
	"github.com/replant-vcs/replant/internal/repo"
)

// Scenario combines a Graph with a repository handle rooted in a temp
// directory, so tests can drive executors end to end against durable state.
type Scenario struct {
	T     *testing.T
	Graph *Graph
	Repo  *repo.Repo
}

// NewScenario creates a scenario with an empty graph and a fresh state dir.
func NewScenario(t *testing.T) *Scenario {
	t.Helper()

	g := NewGraph(t)
	dir := t.TempDir()
	r, err := repo.New(dir, filepath.Join(dir, ".replant"), g.Store)
	require.NoError(t, err)

	return &Scenario{T: t, Graph: g, Repo: r}
}

// Executor builds an executor over the scenario's store and state file.
func (s *Scenario) Executor(engine merge.Engine) *rebase.Executor {
	if engine == nil {
		engine = merge.Trivial{}
	}
	return rebase.NewExecutor(s.Graph.Store, engine, s.Repo, s.Repo.StateFile())
}

// SaveState persists a state as the in-progress rebase, as if written by an
// earlier run (or an older client, since the on-disk form is the legacy one).
func (s *Scenario) SaveState(state *rebase.State) {
	s.T.Helper()
	require.NoError(s.T, s.Repo.StateFile().Save(state))
}

// WriteRawState writes arbitrary bytes to the state file path, bypassing the
// serializer, to simulate damage from other tools or partial writes.
func (s *Scenario) WriteRawState(raw string) {
	s.T.Helper()
	require.NoError(s.T, os.WriteFile(s.Repo.StateFile().Path(), []byte(raw), 0o600))
}
