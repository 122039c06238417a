package access

import (
	"errors"
	"sort"
	"strings"
)

// Placeholder is replaced with the record's own username when folder
// entries are resolved. It lets one template ("uploads/$username")
// serve every registered user.
const Placeholder = "$username"

// ErrBadPath reports an empty or malformed folder path. Traversal
// segments are rejected outright rather than cleaned away: a ".." from
// a caller is a bug or an attack, not something to normalize.
var ErrBadPath = errors.New("invalid folder path")

// NormalizeFolder canonicalizes a slash-delimited folder path:
// repeated separators collapse, leading and trailing separators are
// stripped, and "." segments drop out. It fails on empty input and on
// any ".." segment.
func NormalizeFolder(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", ErrBadPath
	}
	var segs []string
	for _, s := range strings.Split(p, "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			return "", ErrBadPath
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return "", ErrBadPath
	}
	return strings.Join(segs, "/"), nil
}

// covers reports whether path falls under prefix: equal, or prefix
// followed by a separator boundary. "reports" covers "reports/2024"
// but never "reportsX". Both arguments must already be normalized.
func covers(prefix, path string) bool {
	if prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// substitute resolves the $username placeholder in a folder entry.
func substitute(entry, username string) string {
	return strings.ReplaceAll(entry, Placeholder, username)
}

// DefaultSet maps each access level to the folder templates a new
// record is seeded with at registration. Entries may use the
// $username placeholder. The table is configuration: registration and
// the evaluator share it so defaults have one source of truth.
type DefaultSet map[Level][]string

// Defaults returns the built-in template table, matching the folder
// layout the desktop client provisioned: pull users see the shared
// area, push-capable users get a personal upload prefix, and full
// users need no grants at all.
func Defaults() DefaultSet {
	return DefaultSet{
		LevelPull: {"shared"},
		LevelPush: {"uploads/" + Placeholder},
		LevelBoth: {"shared", "uploads/" + Placeholder},
		LevelFull: {},
	}
}

// FoldersFor returns the template set for a level. The result is a
// fresh sorted slice; callers own it. Unknown levels return an error
// so registration cannot silently seed an empty set.
func (d DefaultSet) FoldersFor(level Level) ([]string, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	out := append([]string(nil), d[level]...)
	sort.Strings(out)
	return out, nil
}
