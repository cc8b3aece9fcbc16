package rebase

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/replant-vcs/replant/internal/dag"
	"github.com/replant-vcs/replant/internal/replanterrors"
)

// Legacy state file layout. The format is positional and untagged, written by
// older clients, and must remain byte-for-byte parseable. Fields are read by
// a strict fixed-order reader with length validation so that a future field
// addition fails loudly instead of silently misaligning.
//
//	line 1   originalWorkingParent  40-hex id, all-zero = none
//	line 2   destination            40-hex id
//	line 3   externalParent         40-hex id, all-zero = none
//	line 4   collapse flag          "0" or "1"
//	line 5   keepOriginals flag     "0" or "1"
//	line 6   keepBranchNames flag   "0" or "1"
//	line 7   blank separator        historically a bookmark slot; a missing or
//	                                duplicated separator is tolerated
//	line 8+  entries                "<40-hex original>:<token>" in processing
//	                                order, token = 40-hex new id, all-zero
//	                                (pending), or a known negative integer
//	                                (skipped variant)
const (
	legacyHeaderLines = 6
	legacyHashLen     = 40
)

// ParseLegacy decodes the legacy positional state file into canonical form.
// Well-formed files from any prior client version parse successfully; an
// unrecognized negative token or any structural deviation is rejected with a
// StateFormatError.
func ParseLegacy(data []byte) (*State, error) {
	lines := strings.Split(string(data), "\n")
	// A trailing newline yields one empty trailing element; drop it so the
	// entry loop only sees real lines.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) < legacyHeaderLines {
		return nil, replanterrors.NewStateFormatError(len(lines)+1,
			"truncated header: need %d lines, have %d", legacyHeaderLines, len(lines))
	}

	state := &State{}
	var err error
	if state.OriginalWorkingParent, err = parseLegacyHash(lines[0], 1); err != nil {
		return nil, err
	}
	if state.Destination, err = parseLegacyHash(lines[1], 2); err != nil {
		return nil, err
	}
	if state.ExternalParent, err = parseLegacyHash(lines[2], 3); err != nil {
		return nil, err
	}
	if state.Collapse, err = parseLegacyFlag(lines[3], 4); err != nil {
		return nil, err
	}
	if state.KeepOriginals, err = parseLegacyFlag(lines[4], 5); err != nil {
		return nil, err
	}
	if state.KeepBranchNames, err = parseLegacyFlag(lines[5], 6); err != nil {
		return nil, err
	}

	// Separator: zero or more blank lines between the header and the entries.
	next := legacyHeaderLines
	for next < len(lines) && lines[next] == "" {
		next++
	}

	for i := next; i < len(lines); i++ {
		entry, err := parseLegacyEntry(lines[i], i+1)
		if err != nil {
			return nil, err
		}
		state.Entries = append(state.Entries, entry)
	}
	return state, nil
}

// FormatLegacy encodes the canonical state into the legacy positional layout.
// Round-tripping through ParseLegacy preserves every field; skip variants map
// bijectively to their negative tokens.
func FormatLegacy(s *State) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.OriginalWorkingParent)
	fmt.Fprintf(&b, "%s\n", s.Destination)
	fmt.Fprintf(&b, "%s\n", s.ExternalParent)
	fmt.Fprintf(&b, "%s\n", formatLegacyFlag(s.Collapse))
	fmt.Fprintf(&b, "%s\n", formatLegacyFlag(s.KeepOriginals))
	fmt.Fprintf(&b, "%s\n", formatLegacyFlag(s.KeepBranchNames))
	b.WriteString("\n")
	for i := range s.Entries {
		e := &s.Entries[i]
		fmt.Fprintf(&b, "%s:%s\n", e.Original, formatLegacyToken(e.Status))
	}
	return []byte(b.String())
}

func parseLegacyHash(field string, line int) (dag.CommitID, error) {
	if len(field) != legacyHashLen {
		return plumbing.ZeroHash, replanterrors.NewStateFormatError(line,
			"expected %d-character commit id, got %d characters", legacyHashLen, len(field))
	}
	if _, err := hex.DecodeString(field); err != nil {
		return plumbing.ZeroHash, replanterrors.NewStateFormatError(line,
			"invalid commit id %q", field)
	}
	return plumbing.NewHash(field), nil
}

func parseLegacyFlag(field string, line int) (bool, error) {
	switch field {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, replanterrors.NewStateFormatError(line, "expected flag 0 or 1, got %q", field)
}

func parseLegacyEntry(field string, line int) (Entry, error) {
	original, token, ok := strings.Cut(field, ":")
	if !ok {
		return Entry{}, replanterrors.NewStateFormatError(line, "expected \"<id>:<state>\", got %q", field)
	}

	id, err := parseLegacyHash(original, line)
	if err != nil {
		return Entry{}, err
	}

	if strings.HasPrefix(token, "-") {
		n, convErr := strconv.Atoi(token)
		if convErr != nil {
			return Entry{}, replanterrors.NewStateFormatError(line, "invalid state token %q", token)
		}
		reason := SkipReason(n)
		if !reason.Known() {
			return Entry{}, replanterrors.NewStateFormatError(line, "unrecognized state token %q", token)
		}
		return Entry{Original: id, Status: Skipped(reason)}, nil
	}

	newID, err := parseLegacyHash(token, line)
	if err != nil {
		return Entry{}, err
	}
	if newID.IsZero() {
		return Entry{Original: id, Status: Pending()}, nil
	}
	return Entry{Original: id, Status: Rebased(newID)}, nil
}

func formatLegacyFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func formatLegacyToken(status EntryStatus) string {
	switch status.Kind {
	case StatusRebased:
		return status.NewID.String()
	case StatusSkipped:
		return strconv.Itoa(int(status.Reason))
	default:
		return plumbing.ZeroHash.String()
	}
}
