package access

import "time"

// Record is a user's persisted permission record. The store treats it
// as a single unit: every mutation replaces the whole record, so a
// reader never observes a half-applied folder set.
type Record struct {
	ID           string
	Username     string
	PasswordHash string
	Level        Level
	// Folders holds granted folder prefixes. Entries may contain the
	// $username placeholder; EffectiveFolders substitutes it before
	// the entries are ever matched against a path. Order carries no
	// meaning and duplicates are collapsed on write.
	Folders  []string
	Disabled bool
	Created  time.Time
	Updated  time.Time
}

// Clone returns a deep copy so callers can mutate a working copy
// without aliasing the stored folder slice.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Folders = append([]string(nil), r.Folders...)
	return &c
}

// HasFolder reports whether the record carries the exact entry,
// before placeholder substitution.
func (r *Record) HasFolder(entry string) bool {
	for _, f := range r.Folders {
		if f == entry {
			return true
		}
	}
	return false
}
