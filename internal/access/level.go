// Package access implements the permission core: access levels,
// per-user permission records, folder coverage, and the decision
// functions the API and CLI layers consult before touching storage.
//
// Everything in this package is pure. Record lookup happens elsewhere;
// callers fetch a record from a store and hand it in.
package access

import (
	"errors"
	"fmt"
	"strings"
)

// Level is a user's capability tier. The zero value is invalid so an
// uninitialized record can never authorize anything.
type Level int

const (
	levelInvalid Level = iota

	// LevelPull grants download (read) access only.
	LevelPull

	// LevelPush grants upload (write) access only.
	LevelPush

	// LevelBoth grants download and upload access.
	LevelBoth

	// LevelFull grants download, upload, and administration (user
	// management, folder grants, audit log access). Folder coverage
	// checks do not apply to full users.
	LevelFull
)

// ErrInvalidLevel reports an access level outside the four known tiers.
var ErrInvalidLevel = errors.New("invalid access level")

// ErrInvalidOperation reports an operation outside read/write.
var ErrInvalidOperation = errors.New("invalid operation")

// ParseLevel maps a stored or user-supplied level name onto a Level.
// Legacy labels from the desktop client ("full access", "read_write",
// "admin") are accepted so old records keep working.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pull", "read_only":
		return LevelPull, nil
	case "push", "write_only":
		return LevelPush, nil
	case "both", "read_write", "full access", "full_access":
		return LevelBoth, nil
	case "full", "admin":
		return LevelFull, nil
	}
	return levelInvalid, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Valid reports whether l is one of the four known tiers.
func (l Level) Valid() bool {
	return l >= LevelPull && l <= LevelFull
}

func (l Level) String() string {
	switch l {
	case LevelPull:
		return "pull"
	case LevelPush:
		return "push"
	case LevelBoth:
		return "both"
	case LevelFull:
		return "full"
	}
	return "invalid"
}

// CanRead reports whether the tier authorizes downloads at all,
// before any folder coverage check.
func (l Level) CanRead() bool {
	switch l {
	case LevelPull, LevelBoth, LevelFull:
		return true
	case LevelPush:
		return false
	}
	return false
}

// CanWrite reports whether the tier authorizes uploads at all,
// before any folder coverage check.
func (l Level) CanWrite() bool {
	switch l {
	case LevelPush, LevelBoth, LevelFull:
		return true
	case LevelPull:
		return false
	}
	return false
}

// IsAdmin reports whether the tier carries administrator capability.
func (l Level) IsAdmin() bool {
	return l == LevelFull
}

// MarshalText encodes the canonical level name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrInvalidLevel
	}
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name, accepting legacy labels.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Operation classifies a storage request for authorization purposes.
type Operation int

const (
	opInvalid Operation = iota

	// OpRead covers downloads and folder listings.
	OpRead

	// OpWrite covers uploads, folder creation, and deletes.
	OpWrite
)

// ParseOperation maps an operation name onto an Operation.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read", "download", "pull":
		return OpRead, nil
	case "write", "upload", "push":
		return OpWrite, nil
	}
	return opInvalid, fmt.Errorf("%w: %q", ErrInvalidOperation, s)
}

// Valid reports whether op is read or write.
func (op Operation) Valid() bool {
	return op == OpRead || op == OpWrite
}

func (op Operation) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	}
	return "invalid"
}
