package rebase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/replant-vcs/replant/internal/replanterrors"
)

// StateFileName is the on-disk name of the persisted rebase state, shared
// with older clients so that either side can resume the other's operation.
const StateFileName = "rebasestate"

// StateFile persists the operation state in the legacy text layout. Every
// save goes through a write-to-temp-then-rename so a crash mid-write leaves
// the previous state intact; combined with a flush after every entry
// transition, a crash loses at most the in-flight entry.
type StateFile struct {
	path string
}

// NewStateFile creates a handle for the state file inside dir.
func NewStateFile(dir string) *StateFile {
	return &StateFile{path: filepath.Join(dir, StateFileName)}
}

// Path returns the on-disk location of the state file.
func (f *StateFile) Path() string {
	return f.path
}

// Exists reports whether a persisted state is present.
func (f *StateFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads and decodes the persisted state. A missing file maps to
// ErrNoRebaseInProgress; an unparseable file surfaces the decoder's
// StateFormatError untouched, leaving the file on disk for diagnosis.
func (f *StateFile) Load() (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, replanterrors.ErrNoRebaseInProgress
		}
		return nil, fmt.Errorf("failed to read rebase state: %w", err)
	}
	return ParseLegacy(data)
}

// Save durably writes the state. The write is considered complete only once
// the temp file is synced and renamed into place.
func (f *StateFile) Save(s *State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), StateFileName+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(FormatLegacy(s)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rebase state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync rebase state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close rebase state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace rebase state: %w", err)
	}
	return nil
}

// Clear removes the persisted state. Clearing an absent file is not an error.
func (f *StateFile) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear rebase state: %w", err)
	}
	return nil
}
