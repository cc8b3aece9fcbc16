package testhelpers

import (
	"strings"

	"github.com/replant-vcs/replant/internal/merge"
)

// UnionMerge treats contents as space-separated token sets, the way the
// graph builder accumulates them along a commit chain, and merges by taking
// "ours" plus whatever "theirs" adds. It never conflicts by itself; wrap it
// in merge.Scripted to force conflicts.
type UnionMerge struct{}

// Merge implements merge.Engine.
func (UnionMerge) Merge(base, ours, theirs string) (merge.Result, error) {
	have := make(map[string]bool)
	var out []string
	for _, tok := range strings.Fields(ours) {
		if !have[tok] {
			have[tok] = true
			out = append(out, tok)
		}
	}
	for _, tok := range strings.Fields(theirs) {
		if !have[tok] {
			have[tok] = true
			out = append(out, tok)
		}
	}
	return merge.Result{Clean: true, Content: strings.Join(out, " ")}, nil
}
