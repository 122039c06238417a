package access

import (
	"errors"
	"sort"
)

// ErrNoRecord reports a nil permission record where one is required.
// It is distinct from denial: a missing user is a lookup failure the
// caller should surface, not a normal authorization outcome.
var ErrNoRecord = errors.New("no permission record")

// CanPerform decides whether the record's owner may perform op on
// folder. Denial is (false, nil); errors are reserved for malformed
// input (bad path, out-of-range enums). A nil record is an automatic
// denial, not an error.
//
// The decision is two gates in sequence: the level must authorize the
// operation class at all, then the folder must be covered by at least
// one effective entry. Full users skip the coverage gate.
func CanPerform(rec *Record, op Operation, folder string) (bool, error) {
	if rec == nil {
		return false, nil
	}
	if !rec.Level.Valid() {
		return false, ErrInvalidLevel
	}
	if !op.Valid() {
		return false, ErrInvalidOperation
	}
	path, err := NormalizeFolder(folder)
	if err != nil {
		return false, err
	}

	if rec.Disabled {
		return false, nil
	}

	switch op {
	case OpRead:
		if !rec.Level.CanRead() {
			return false, nil
		}
	case OpWrite:
		if !rec.Level.CanWrite() {
			return false, nil
		}
	}

	if rec.Level.IsAdmin() {
		return true, nil
	}

	folders, err := EffectiveFolders(rec)
	if err != nil {
		return false, err
	}
	for _, f := range folders {
		if covers(f, path) {
			return true, nil
		}
	}
	return false, nil
}

// EffectiveFolders resolves the record's granted folders: the
// $username placeholder is substituted, entries are normalized and
// deduplicated, and the result is sorted so repeated calls yield an
// identical slice. Entries that fail normalization are dropped rather
// than failing the whole set; a grant was validated when it was
// written, so a bad stored entry only ever shrinks access.
//
// A present record with no grants returns an empty, non-nil slice.
// A nil record returns ErrNoRecord so callers can tell "no folders
// granted" apart from "no such user".
func EffectiveFolders(rec *Record) ([]string, error) {
	if rec == nil {
		return nil, ErrNoRecord
	}
	seen := make(map[string]struct{}, len(rec.Folders))
	out := make([]string, 0, len(rec.Folders))
	for _, entry := range rec.Folders {
		resolved, err := NormalizeFolder(substitute(entry, rec.Username))
		if err != nil {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	sort.Strings(out)
	return out, nil
}
