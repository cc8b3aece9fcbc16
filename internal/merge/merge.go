// Package merge defines the three-way merge collaborator contract used by the
// rebase executor. The real file-level merge algorithm lives outside this
// module; this package carries the interface plus a trivial content-identity
// engine good enough for whole-snapshot merges.
package merge

import "fmt"

// Result is the outcome of a three-way merge.
type Result struct {
	// Clean is true when the merge resolved without conflicts.
	Clean bool
	// Content is the merged content when Clean.
	Content string
	// Markers describes the conflicting regions when not Clean.
	Markers string
}

// Engine performs a three-way merge between a common base and two sides.
type Engine interface {
	Merge(base, ours, theirs string) (Result, error)
}

// Trivial is a whole-content three-way merge: it takes whichever side changed
// relative to the base and conflicts when both sides changed differently.
type Trivial struct{}

// Merge implements Engine.
func (Trivial) Merge(base, ours, theirs string) (Result, error) {
	switch {
	case ours == theirs:
		return Result{Clean: true, Content: ours}, nil
	case theirs == base:
		return Result{Clean: true, Content: ours}, nil
	case ours == base:
		return Result{Clean: true, Content: theirs}, nil
	default:
		markers := fmt.Sprintf("<<<<<<< ours\n%s\n=======\n%s\n>>>>>>> theirs", ours, theirs)
		return Result{Clean: false, Markers: markers}, nil
	}
}
