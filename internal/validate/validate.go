// Package validate contains simple input validation helpers.
package validate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/astaXmjy/s3BucMg/internal/access"
)

// usernameRe enforces a conservative username pattern.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// ErrUsername reports a username outside the allowed pattern.
var ErrUsername = errors.New("invalid username")

// Username validates a username string for length and allowed characters.
func Username(s string) error {
	if !usernameRe.MatchString(s) {
		return ErrUsername
	}
	return nil
}

// FolderEntry validates and canonicalizes a folder grant entry. The
// $username placeholder is allowed as a whole path segment; the entry
// with the placeholder substituted by a probe name must still
// normalize cleanly, so traversal can't hide behind the template.
func FolderEntry(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", access.ErrBadPath
	}
	probe := strings.ReplaceAll(s, access.Placeholder, "probe")
	if _, err := access.NormalizeFolder(probe); err != nil {
		return "", err
	}
	// Canonicalize separators but keep the placeholder literal.
	var segs []string
	for _, seg := range strings.Split(s, "/") {
		if seg == "" || seg == "." {
			continue
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, "/"), nil
}
