package dag

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/replant-vcs/replant/internal/replanterrors"
)

// GitStore adapts a git object database to the Store interface. Commits
// resolve to their parent hashes plus the root tree id as content, and
// Create writes genuine commit objects, so rewrites made here are ordinary
// git history. The supersession map is held in memory: git has no native
// obsolescence marker, and hiding replaced commits from git views is ref
// management outside this layer.
type GitStore struct {
	repo *git.Repository

	mu         sync.RWMutex
	successors map[CommitID]CommitID
}

// NewGitStore creates a Store over an open git repository.
func NewGitStore(repo *git.Repository) *GitStore {
	return &GitStore{
		repo:       repo,
		successors: make(map[CommitID]CommitID),
	}
}

// Resolve returns the commit for the given id.
func (s *GitStore) Resolve(id CommitID) (*Commit, error) {
	c, err := s.repo.CommitObject(id)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, replanterrors.NewCommitNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to resolve %s: %w", id, err)
	}
	return &Commit{
		ID:      c.Hash,
		Parents: append([]CommitID(nil), c.ParentHashes...),
		Content: c.TreeHash.String(),
		Meta: Metadata{
			Message: c.Message,
			Author:  c.Author.Name,
			Date:    c.Author.When,
		},
	}, nil
}

// Create writes a new commit object. content must be the hex id of an
// existing tree.
func (s *GitStore) Create(parents []CommitID, content string, meta Metadata) (CommitID, error) {
	if len(content) != 40 {
		return plumbing.ZeroHash, fmt.Errorf("content %q is not a tree id", content)
	}
	if _, err := hex.DecodeString(content); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("content %q is not a tree id", content)
	}

	sig := object.Signature{Name: meta.Author, When: meta.Date}
	c := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      meta.Message,
		TreeHash:     plumbing.NewHash(content),
		ParentHashes: append([]CommitID(nil), parents...),
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode commit: %w", err)
	}
	id, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to write commit: %w", err)
	}
	return id, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (s *GitStore) IsAncestor(ancestor, descendant CommitID) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	anc, err := s.repo.CommitObject(ancestor)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	desc, err := s.repo.CommitObject(descendant)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, replanterrors.NewCommitNotFoundError(descendant.String())
		}
		return false, err
	}
	return anc.IsAncestor(desc)
}

// MarkSuperseded records that old was replaced by successor.
func (s *GitStore) MarkSuperseded(old, successor CommitID) error {
	if _, err := s.Resolve(old); err != nil {
		return err
	}
	if !successor.IsZero() {
		if _, err := s.Resolve(successor); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successors[old] = successor
	return nil
}

// Successor follows the supersession chain from id to its live replacement.
func (s *GitStore) Successor(id CommitID) (CommitID, bool) {
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
			return plumbing.ZeroHash, false
		}
		cur = next
		hopped = true
	}
}

// IsObsolete reports whether id has been superseded or pruned.
func (s *GitStore) IsObsolete(id CommitID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.successors[id]
	return ok
}
