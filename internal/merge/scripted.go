package merge

// Scripted wraps an Engine and forces chosen outcomes, keyed by the "theirs"
// content of the merge. Used in tests to drive the executor into its paused
// and failed states.
type Scripted struct {
	// Inner handles everything not forced. Defaults to Trivial when nil.
	Inner Engine
	// ConflictOn forces a conflicted result for these theirs-contents.
	ConflictOn map[string]bool
	// FailOn forces a hard engine error for these theirs-contents.
	FailOn map[string]error
}

// Merge implements Engine.
func (s *Scripted) Merge(base, ours, theirs string) (Result, error) {
	if err, ok := s.FailOn[theirs]; ok {
		return Result{}, err
	}
	if s.ConflictOn[theirs] {
		return Result{Clean: false, Markers: "scripted conflict on " + theirs}, nil
	}
	inner := s.Inner
	if inner == nil {
		inner = Trivial{}
	}
	return inner.Merge(base, ours, theirs)
}
