package dag

import (
	"crypto/sha1"
	"fmt"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/replant-vcs/replant/internal/replanterrors"
)

// MemStore is an in-memory Store implementation backed by an arena of
// immutable commit records. It is the reference backend used by tests and by
// repositories that are not layered on a git object database.
// Thread-safe: all methods are safe for concurrent use.
type MemStore struct {
	mu         sync.RWMutex
	commits    map[CommitID]*Commit
	successors map[CommitID]CommitID // old -> replacement (zero = pruned)
}

// NewMemStore creates an empty in-memory commit store.
func NewMemStore() *MemStore {
	return &MemStore{
		commits:    make(map[CommitID]*Commit),
		successors: make(map[CommitID]CommitID),
	}
}

// Resolve returns the commit for the given id
func (s *MemStore) Resolve(id CommitID) (*Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.commits[id]
	if !ok {
		return nil, replanterrors.NewCommitNotFoundError(id.String())
	}
	return c, nil
}

// Create writes a new commit record and returns its content-derived id.
// The id is a hash over parents, content, and metadata, so repeated runs with
// identical inputs yield identical ids.
func (s *MemStore) Create(parents []CommitID, content string, meta Metadata) (CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range parents {
		if _, ok := s.commits[p]; !ok {
			return plumbing.ZeroHash, replanterrors.NewCommitNotFoundError(p.String())
		}
	}

	id := hashCommit(parents, content, meta)
	if _, ok := s.commits[id]; ok {
		// Identical inputs collapse onto the existing record.
		return id, nil
	}

	s.commits[id] = &Commit{
		ID:      id,
		Parents: append([]CommitID(nil), parents...),
		Content: content,
		Meta:    meta,
	}
	return id, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (s *MemStore) IsAncestor(ancestor, descendant CommitID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.commits[descendant]; !ok {
		return false, replanterrors.NewCommitNotFoundError(descendant.String())
	}

	seen := make(map[CommitID]bool)
	queue := []CommitID{descendant}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == ancestor {
			return true, nil
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := s.commits[id]; ok {
			queue = append(queue, c.Parents...)
		}
	}
	return false, nil
}

// MarkSuperseded records that old was replaced by successor.
func (s *MemStore) MarkSuperseded(old, successor CommitID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.commits[old]; !ok {
		return replanterrors.NewCommitNotFoundError(old.String())
	}
	if !successor.IsZero() {
		if _, ok := s.commits[successor]; !ok {
			return replanterrors.NewCommitNotFoundError(successor.String())
		}
	}
	s.successors[old] = successor
	return nil
}

// Successor follows the supersession chain from id to its live replacement.
func (s *MemStore) Successor(id CommitID) (CommitID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := id
	hopped := false
	for {
		next, ok := s.successors[cur]
		if !ok {
			if !hopped {
				return plumbing.ZeroHash, false
			}
			return cur, true
		}
		if next.IsZero() {
			// Pruned: no live replacement.
			return plumbing.ZeroHash, false
		}
		cur = next
		hopped = true
	}
}

// IsObsolete reports whether id has been superseded or pruned.
func (s *MemStore) IsObsolete(id CommitID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.successors[id]
	return ok
}

func hashCommit(parents []CommitID, content string, meta Metadata) CommitID {
	h := sha1.New()
	for _, p := range parents {
		h.Write(p[:])
	}
	fmt.Fprintf(h, "content %s\n", content)
	fmt.Fprintf(h, "message %s\n", meta.Message)
	fmt.Fprintf(h, "branch %s\n", meta.Branch)
	fmt.Fprintf(h, "author %s %d\n", meta.Author, meta.Date.Unix())

	var id CommitID
	copy(id[:], h.Sum(nil))
	return id
}
