// Package account implements registration, authentication, and the
// administrator mutations over permission records. All mutations go
// through read-modify-replace of the whole record; the store contract
// makes each replace atomic, and last write wins.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/audit"
	"github.com/astaXmjy/s3BucMg/internal/auth"
	"github.com/astaXmjy/s3BucMg/internal/store"
	"github.com/astaXmjy/s3BucMg/internal/validate"
)

var (
	// ErrExists reports a registration for a taken username.
	ErrExists = errors.New("username already exists")

	// ErrCredentials is the single failure returned for any bad
	// login, so callers can't probe which part was wrong.
	ErrCredentials = errors.New("invalid username or password")

	// ErrFolderNotGranted reports a revoke for an entry the record
	// does not carry.
	ErrFolderNotGranted = errors.New("folder not granted")

	// ErrPassword reports an empty registration password.
	ErrPassword = errors.New("password is required")
)

// Service wires the store, the defaults table, and the audit sink.
type Service struct {
	Store    store.Store
	Defaults access.DefaultSet
	Audit    audit.Recorder
	Hash     auth.HashParams

	// now is swappable for tests.
	now func() time.Time
}

func NewService(st store.Store, defaults access.DefaultSet, rec audit.Recorder) *Service {
	if defaults == nil {
		defaults = access.Defaults()
	}
	if rec == nil {
		rec = audit.Nop()
	}
	return &Service{
		Store:    st,
		Defaults: defaults,
		Audit:    rec,
		Hash:     auth.DefaultHashParams(),
		now:      time.Now,
	}
}

// Register creates a record with the level's default folder
// templates. Templates keep their $username placeholder in the stored
// record; substitution happens at evaluation time, so renaming the
// defaults table later never rewrites existing records.
func (s *Service) Register(ctx context.Context, username, password string, level access.Level) (*access.Record, error) {
	if err := validate.Username(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPassword
	}
	if !level.Valid() {
		return nil, access.ErrInvalidLevel
	}
	if _, err := s.Store.GetRecord(ctx, username); err == nil {
		return nil, ErrExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.Hash)
	if err != nil {
		return nil, err
	}
	folders, err := s.Defaults.FoldersFor(level)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &access.Record{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Level:        level,
		Folders:      folders,
		Created:      now,
		Updated:      now,
	}
	if err := s.Store.PutRecord(ctx, rec); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, audit.Event{
		Action: "user_registered",
		Actor:  username,
		Target: username,
		Detail: map[string]string{"level": level.String()},
	})
	return rec, nil
}

// Authenticate verifies credentials and returns the record. Unknown
// user, wrong password, and disabled account all surface as
// ErrCredentials; store failures pass through unchanged so callers
// never mistake an outage for a denial.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*access.Record, error) {
	rec, err := s.Store.GetRecord(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		s.Audit.Record(ctx, audit.Event{Action: "login_failed", Actor: username, Target: username})
		return nil, ErrCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := auth.VerifyPassword(password, rec.PasswordHash)
	if err != nil || !ok || rec.Disabled {
		s.Audit.Record(ctx, audit.Event{Action: "login_failed", Actor: username, Target: username})
		return nil, ErrCredentials
	}
	s.Audit.Record(ctx, audit.Event{Action: "login_success", Actor: username, Target: username})
	return rec, nil
}

// GrantFolder adds a folder entry to a user's record. A duplicate
// grant is a no-op. The entry may carry the $username placeholder.
func (s *Service) GrantFolder(ctx context.Context, actor, username, folder string) (*access.Record, error) {
	entry, err := validate.FolderEntry(folder)
	if err != nil {
		return nil, err
	}
	rec, err := s.Store.GetRecord(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec.HasFolder(entry) {
		return rec, nil
	}
	rec.Folders = append(rec.Folders, entry)
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, audit.Event{
		Action: "folder_granted",
		Actor:  actor,
		Target: username,
		Detail: map[string]string{"folder": entry},
	})
	return rec, nil
}

// RevokeFolder removes a folder entry from a user's record.
func (s *Service) RevokeFolder(ctx context.Context, actor, username, folder string) (*access.Record, error) {
	entry, err := validate.FolderEntry(folder)
	if err != nil {
		return nil, err
	}
	rec, err := s.Store.GetRecord(ctx, username)
	if err != nil {
		return nil, err
	}
	kept := rec.Folders[:0]
	found := false
	for _, f := range rec.Folders {
		if f == entry {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotGranted, entry)
	}
	rec.Folders = kept
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, audit.Event{
		Action: "folder_revoked",
		Actor:  actor,
		Target: username,
		Detail: map[string]string{"folder": entry},
	})
	return rec, nil
}

// SetLevel changes a user's access level. Folders are left alone;
// an admin narrowing someone from both to pull usually wants the
// grant list intact for a later upgrade.
func (s *Service) SetLevel(ctx context.Context, actor, username string, level access.Level) (*access.Record, error) {
	if !level.Valid() {
		return nil, access.ErrInvalidLevel
	}
	rec, err := s.Store.GetRecord(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec.Level == level {
		return rec, nil
	}
	old := rec.Level
	rec.Level = level
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, audit.Event{
		Action: "level_changed",
		Actor:  actor,
		Target: username,
		Detail: map[string]string{"from": old.String(), "to": level.String()},
	})
	return rec, nil
}

// SetDisabled enables or disables an account.
func (s *Service) SetDisabled(ctx context.Context, actor, username string, disabled bool) (*access.Record, error) {
	rec, err := s.Store.GetRecord(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec.Disabled == disabled {
		return rec, nil
	}
	rec.Disabled = disabled
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	action := "user_enabled"
	if disabled {
		action = "user_disabled"
	}
	s.Audit.Record(ctx, audit.Event{Action: action, Actor: actor, Target: username})
	return rec, nil
}

// Delete removes a user's record entirely.
func (s *Service) Delete(ctx context.Context, actor, username string) error {
	if err := s.Store.DeleteRecord(ctx, username); err != nil {
		return err
	}
	s.Audit.Record(ctx, audit.Event{Action: "user_deleted", Actor: actor, Target: username})
	return nil
}

// Get returns a user's record; store.ErrNotFound passes through so
// callers can distinguish "missing user" from "no folders granted".
func (s *Service) Get(ctx context.Context, username string) (*access.Record, error) {
	return s.Store.GetRecord(ctx, username)
}

// List returns all records sorted by username.
func (s *Service) List(ctx context.Context) ([]*access.Record, error) {
	return s.Store.ListRecords(ctx)
}

func (s *Service) update(ctx context.Context, rec *access.Record) error {
	rec.Updated = s.now().UTC()
	return s.Store.PutRecord(ctx, rec)
}
