// Package httpapi tests drive the API end to end over httptest with
// the in-memory store.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/account"
	"github.com/astaXmjy/s3BucMg/internal/auth"
	"github.com/astaXmjy/s3BucMg/internal/store/memstore"
)

type fixture struct {
	ts  *httptest.Server
	svc *account.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	svc := account.NewService(memstore.New(), nil, nil)
	svc.Hash.Memory = 8 * 1024
	svc.Hash.Passes = 1

	tokens, err := auth.NewTokens([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	srv := &Server{
		Accounts: svc,
		Tokens:   tokens,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, svc: svc}
}

func (f *fixture) register(t *testing.T, username, password string, level access.Level) {
	t.Helper()
	if _, err := f.svc.Register(context.Background(), username, password, level); err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, out := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d (%v)", username, resp.StatusCode, out)
	}
	tok, _ := out["token"].(string)
	if tok == "" {
		t.Fatalf("login %s: no token in %v", username, out)
	}
	return tok
}

// TestLoginAndFolders logs in and lists effective folders.
func TestLoginAndFolders(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw123456", access.LevelBoth)

	tok := f.login(t, "alice", "pw123456")
	resp, out := f.do(t, http.MethodGet, "/api/folders", tok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("folders: status %d", resp.StatusCode)
	}
	folders, _ := out["folders"].([]any)
	if len(folders) != 2 {
		t.Fatalf("expected 2 default folders for both, got %v", out["folders"])
	}
	for _, fv := range folders {
		if fv == "uploads/$username" {
			t.Fatalf("placeholder leaked to the wire: %v", folders)
		}
	}
}

// TestLoginRejectsBadPassword returns 401, not 400.
func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw123456", access.LevelPull)

	resp, _ := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

// TestAuthorize distinguishes allow, deny, and malformed input.
func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob", "pw123456", access.LevelPush)
	tok := f.login(t, "bob", "pw123456")

	resp, out := f.do(t, http.MethodPost, "/api/authorize", tok, map[string]string{
		"operation": "write", "folder": "uploads/bob/report.csv",
	})
	if resp.StatusCode != http.StatusOK || out["allowed"] != true {
		t.Fatalf("expected allow, got %d %v", resp.StatusCode, out)
	}

	resp, out = f.do(t, http.MethodPost, "/api/authorize", tok, map[string]string{
		"operation": "read", "folder": "uploads/bob/report.csv",
	})
	if resp.StatusCode != http.StatusOK || out["allowed"] != false {
		t.Fatalf("expected deny for push+read, got %d %v", resp.StatusCode, out)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/authorize", tok, map[string]string{
		"operation": "write", "folder": "uploads/../etc",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for traversal, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/authorize", tok, map[string]string{
		"operation": "chmod", "folder": "uploads/bob",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown operation, got %d", resp.StatusCode)
	}
}

// TestAdminGate blocks non-admin tokens from admin routes.
func TestAdminGate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "pw123456", access.LevelBoth)
	tok := f.login(t, "alice", "pw123456")

	resp, _ := f.do(t, http.MethodGet, "/api/admin/users", tok, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, "/api/admin/users", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

// TestAdminUserLifecycle creates, grants, revokes, and deletes a user
// through the API.
func TestAdminUserLifecycle(t *testing.T) {
	f := newFixture(t)
	f.register(t, "root", "pw123456", access.LevelFull)
	tok := f.login(t, "root", "pw123456")

	resp, out := f.do(t, http.MethodPost, "/api/admin/users", tok, map[string]string{
		"username": "carol", "password": "pw123456", "level": "pull",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d (%v)", resp.StatusCode, out)
	}

	resp, out = f.do(t, http.MethodPost, "/api/admin/users/carol/folders", tok, map[string]string{
		"folder": "reports/2024",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grant: status %d (%v)", resp.StatusCode, out)
	}

	ctok := f.login(t, "carol", "pw123456")
	resp, out = f.do(t, http.MethodPost, "/api/authorize", ctok, map[string]string{
		"operation": "read", "folder": "reports/2024/q1",
	})
	if resp.StatusCode != http.StatusOK || out["allowed"] != true {
		t.Fatalf("expected granted read, got %d %v", resp.StatusCode, out)
	}

	resp, _ = f.do(t, http.MethodDelete, "/api/admin/users/carol/folders", tok, map[string]string{
		"folder": "reports/2024",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revoke: status %d", resp.StatusCode)
	}

	resp, out = f.do(t, http.MethodPost, "/api/authorize", ctok, map[string]string{
		"operation": "read", "folder": "reports/2024/q1",
	})
	if resp.StatusCode != http.StatusOK || out["allowed"] != false {
		t.Fatalf("expected deny after revoke, got %d %v", resp.StatusCode, out)
	}

	resp, _ = f.do(t, http.MethodPut, "/api/admin/users/carol/level", tok, map[string]string{
		"level": "both",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set level: status %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodDelete, "/api/admin/users/carol", tok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodGet, "/api/admin/users/carol", tok, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

// TestCreateUserValidation returns 400 for bad usernames and levels,
// 409 for duplicates.
func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "root", "pw123456", access.LevelFull)
	tok := f.login(t, "root", "pw123456")

	resp, _ := f.do(t, http.MethodPost, "/api/admin/users", tok, map[string]string{
		"username": "bad name", "password": "pw123456", "level": "pull",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad username, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/admin/users", tok, map[string]string{
		"username": "dave", "password": "pw123456", "level": "superuser",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad level, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/admin/users", tok, map[string]string{
		"username": "root", "password": "pw123456", "level": "pull",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", resp.StatusCode)
	}
}
