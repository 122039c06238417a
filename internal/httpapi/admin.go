package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/account"
	"github.com/astaXmjy/s3BucMg/internal/auth"
	"github.com/astaXmjy/s3BucMg/internal/store"
	"github.com/astaXmjy/s3BucMg/internal/validate"
)

// userView is the wire shape of a record. The password hash never
// leaves the server.
type userView struct {
	Username string   `json:"username"`
	Level    string   `json:"level"`
	Folders  []string `json:"folders"`
	Disabled bool     `json:"disabled"`
	Created  int64    `json:"created_at"`
	Updated  int64    `json:"updated_at"`
}

func viewOf(rec *access.Record) userView {
	folders := rec.Folders
	if folders == nil {
		folders = []string{}
	}
	return userView{
		Username: rec.Username,
		Level:    rec.Level.String(),
		Folders:  folders,
		Disabled: rec.Disabled,
		Created:  rec.Created.Unix(),
		Updated:  rec.Updated.Unix(),
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	recs, err := s.Accounts.List(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	out := make([]userView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewOf(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Level    string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	level, err := access.ParseLevel(req.Level)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid level"})
		return
	}
	rec, err := s.Accounts.Register(r.Context(), req.Username, req.Password, level)
	if errors.Is(err, account.ErrExists) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username taken"})
		return
	}
	if err != nil {
		s.badRequestOrStore(w, err)
		return
	}
	s.Logger.Info("user created", "username", rec.Username, "level", rec.Level.String(), "by", claims.Username)
	writeJSON(w, http.StatusCreated, viewOf(rec))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, _ *auth.Claims) {
	rec, err := s.Accounts.Get(r.Context(), r.PathValue("name"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such user"})
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	name := r.PathValue("name")
	err := s.Accounts.Delete(r.Context(), claims.Username, name)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such user"})
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

func (s *Server) handleGrantFolder(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := s.Accounts.GrantFolder(r.Context(), claims.Username, r.PathValue("name"), req.Folder)
	if err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleRevokeFolder(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := s.Accounts.RevokeFolder(r.Context(), claims.Username, r.PathValue("name"), req.Folder)
	if errors.Is(err, account.ErrFolderNotGranted) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "folder not granted"})
		return
	}
	if err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	level, err := access.ParseLevel(req.Level)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid level"})
		return
	}
	rec, err := s.Accounts.SetLevel(r.Context(), claims.Username, r.PathValue("name"), level)
	if err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	rec, err := s.Accounts.SetDisabled(r.Context(), claims.Username, r.PathValue("name"), req.Disabled)
	if err != nil {
		s.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

// mutationError maps account-service failures onto status codes:
// malformed input is the caller's bug (400), a missing user is 404,
// anything else is the store.
func (s *Server) mutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such user"})
	case errors.Is(err, access.ErrBadPath), errors.Is(err, access.ErrInvalidLevel):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.storeError(w, err)
	}
}

func (s *Server) badRequestOrStore(w http.ResponseWriter, err error) {
	if errors.Is(err, access.ErrInvalidLevel) || errors.Is(err, validate.ErrUsername) || errors.Is(err, account.ErrPassword) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.storeError(w, err)
}
