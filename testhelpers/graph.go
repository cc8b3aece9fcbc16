// Package testhelpers provides builders for commit graphs and repository
// scenarios used across the test suites.
package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replant-vcs/replant/internal/dag"
)

// Graph builds a named commit DAG on a MemStore with a terse fluent API.
// Names stand in for commit ids, which are content-derived and therefore
// stable across runs.
type Graph struct {
	T     *testing.T
	Store *dag.MemStore
	ids   map[string]dag.CommitID
	names map[dag.CommitID]string
}

// NewGraph creates an empty graph.
func NewGraph(t *testing.T) *Graph {
	t.Helper()
	return &Graph{
		T:     t,
		Store: dag.NewMemStore(),
		ids:   make(map[string]dag.CommitID),
		names: make(map[dag.CommitID]string),
	}
}

// Commit adds a commit whose content is its first parent's content plus its
// own name, mimicking a snapshot that accumulates one change per commit.
func (g *Graph) Commit(name string, parents ...string) *Graph {
	g.T.Helper()
	content := name
	if len(parents) > 0 {
		content = g.Resolve(g.ID(parents[0])).Content + " " + name
	}
	return g.CommitContent(name, content, parents...)
}

// CommitContent adds a commit with explicit content.
func (g *Graph) CommitContent(name, content string, parents ...string) *Graph {
	g.T.Helper()

	var parentIDs []dag.CommitID
	for _, p := range parents {
		parentIDs = append(parentIDs, g.ID(p))
	}
	id, err := g.Store.Create(parentIDs, content, dag.Metadata{
		Message: name,
		Branch:  name,
		Author:  "test <test@example.com>",
	})
	require.NoError(g.T, err)

	g.ids[name] = id
	g.names[id] = name
	return g
}

// ID returns the id for a named commit, failing the test for unknown names.
func (g *Graph) ID(name string) dag.CommitID {
	g.T.Helper()
	id, ok := g.ids[name]
	require.True(g.T, ok, "unknown commit name %q", name)
	return id
}

// IDs maps names to ids.
func (g *Graph) IDs(names ...string) []dag.CommitID {
	g.T.Helper()
	out := make([]dag.CommitID, 0, len(names))
	for _, n := range names {
		out = append(out, g.ID(n))
	}
	return out
}

// Name returns the name for an id, or its hex form when unnamed (e.g. a
// commit created by the executor).
func (g *Graph) Name(id dag.CommitID) string {
	if n, ok := g.names[id]; ok {
		return n
	}
	return id.String()
}

// Resolve fetches a commit from the store, failing the test on error.
func (g *Graph) Resolve(id dag.CommitID) *dag.Commit {
	g.T.Helper()
	c, err := g.Store.Resolve(id)
	require.NoError(g.T, err)
	return c
}
