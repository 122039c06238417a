// Package account tests run the service over the in-memory store.
package account

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/store"
	"github.com/astaXmjy/s3BucMg/internal/store/memstore"
)

func service() *Service {
	s := NewService(memstore.New(), nil, nil)
	// Cheap hash parameters keep the tests fast.
	s.Hash.Memory = 8 * 1024
	s.Hash.Passes = 1
	return s
}

// TestRegisterSeedsDefaults creates a push user and checks the
// template folders landed on the record un-substituted.
func TestRegisterSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	svc := service()

	rec, err := svc.Register(ctx, "bob", "pw123456", access.LevelPush)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected a record id")
	}
	if !reflect.DeepEqual(rec.Folders, []string{"uploads/$username"}) {
		t.Fatalf("unexpected seeded folders: %v", rec.Folders)
	}

	eff, err := access.EffectiveFolders(rec)
	if err != nil {
		t.Fatalf("EffectiveFolders: %v", err)
	}
	if !reflect.DeepEqual(eff, []string{"uploads/bob"}) {
		t.Fatalf("unexpected effective folders: %v", eff)
	}
}

// TestRegisterDuplicate rejects a taken username.
func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := service()

	if _, err := svc.Register(ctx, "alice", "pw123456", access.LevelPull); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "other", access.LevelPush); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

// TestAuthenticate covers success, wrong password, unknown user, and
// a disabled account, all collapsing to one credential error.
func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := service()

	if _, err := svc.Register(ctx, "carol", "pw123456", access.LevelBoth); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec, err := svc.Authenticate(ctx, "carol", "pw123456")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if rec.Username != "carol" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := svc.Authenticate(ctx, "carol", "nope"); !errors.Is(err, ErrCredentials) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost", "pw123456"); !errors.Is(err, ErrCredentials) {
		t.Fatalf("expected ErrCredentials for unknown user, got %v", err)
	}

	if _, err := svc.SetDisabled(ctx, "admin", "carol", true); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "carol", "pw123456"); !errors.Is(err, ErrCredentials) {
		t.Fatalf("expected ErrCredentials for disabled account, got %v", err)
	}
}

// TestGrantRevokeFolder exercises the whole grant lifecycle.
func TestGrantRevokeFolder(t *testing.T) {
	ctx := context.Background()
	svc := service()

	if _, err := svc.Register(ctx, "dave", "pw123456", access.LevelPull); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec, err := svc.GrantFolder(ctx, "admin", "dave", "reports/2024/")
	if err != nil {
		t.Fatalf("GrantFolder: %v", err)
	}
	if !rec.HasFolder("reports/2024") {
		t.Fatalf("grant missing: %v", rec.Folders)
	}

	// Duplicate grant is a no-op.
	again, err := svc.GrantFolder(ctx, "admin", "dave", "reports/2024")
	if err != nil {
		t.Fatalf("GrantFolder (dup): %v", err)
	}
	if len(again.Folders) != len(rec.Folders) {
		t.Fatalf("duplicate grant grew the set: %v", again.Folders)
	}

	ok, err := access.CanPerform(again, access.OpRead, "reports/2024/q3/summary.pdf")
	if err != nil || !ok {
		t.Fatalf("expected granted folder to authorize, got %v, %v", ok, err)
	}

	rec, err = svc.RevokeFolder(ctx, "admin", "dave", "reports/2024")
	if err != nil {
		t.Fatalf("RevokeFolder: %v", err)
	}
	if rec.HasFolder("reports/2024") {
		t.Fatalf("revoke left the entry: %v", rec.Folders)
	}
	if _, err := svc.RevokeFolder(ctx, "admin", "dave", "reports/2024"); !errors.Is(err, ErrFolderNotGranted) {
		t.Fatalf("expected ErrFolderNotGranted, got %v", err)
	}

	ok, err = access.CanPerform(rec, access.OpRead, "reports/2024/q3/summary.pdf")
	if err != nil {
		t.Fatalf("CanPerform: %v", err)
	}
	if ok {
		t.Fatalf("revoked folder still authorizes")
	}
}

// TestGrantRejectsTraversal refuses malformed entries before they
// reach the store.
func TestGrantRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	svc := service()

	if _, err := svc.Register(ctx, "erin", "pw123456", access.LevelPull); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.GrantFolder(ctx, "admin", "erin", "a/../b"); !errors.Is(err, access.ErrBadPath) {
		t.Fatalf("expected ErrBadPath, got %v", err)
	}
}

// TestSetLevelAndDelete changes tier, then removes the account.
func TestSetLevelAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := service()

	if _, err := svc.Register(ctx, "frank", "pw123456", access.LevelPull); err != nil {
		t.Fatalf("Register: %v", err)
	}
	rec, err := svc.SetLevel(ctx, "admin", "frank", access.LevelFull)
	if err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if rec.Level != access.LevelFull {
		t.Fatalf("level not applied: %v", rec.Level)
	}

	if err := svc.Delete(ctx, "admin", "frank"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "frank"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
