// Package httpapi exposes the permission service over HTTP: login,
// folder listing, and authorization checks for every user, plus user
// and grant management for administrators. No file bytes move through
// this API; storage clients consult /api/authorize before talking to
// the bucket.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/account"
	"github.com/astaXmjy/s3BucMg/internal/auth"
	"github.com/astaXmjy/s3BucMg/internal/store"
)

type Server struct {
	Accounts *account.Service
	Tokens   *auth.Tokens
	Logger   *slog.Logger

	loginLimiter *fixedWindowLimiter
}

// Handler assembles the route table with logging and panic recovery
// wrapped around it.
func (s *Server) Handler() http.Handler {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.loginLimiter == nil {
		s.loginLimiter = newFixedWindowLimiter(10, time.Minute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/folders", s.withUser(s.handleFolders))
	mux.HandleFunc("POST /api/authorize", s.withUser(s.handleAuthorize))

	mux.HandleFunc("GET /api/admin/users", s.withAdmin(s.handleListUsers))
	mux.HandleFunc("POST /api/admin/users", s.withAdmin(s.handleCreateUser))
	mux.HandleFunc("GET /api/admin/users/{name}", s.withAdmin(s.handleGetUser))
	mux.HandleFunc("DELETE /api/admin/users/{name}", s.withAdmin(s.handleDeleteUser))
	mux.HandleFunc("POST /api/admin/users/{name}/folders", s.withAdmin(s.handleGrantFolder))
	mux.HandleFunc("DELETE /api/admin/users/{name}/folders", s.withAdmin(s.handleRevokeFolder))
	mux.HandleFunc("PUT /api/admin/users/{name}/level", s.withAdmin(s.handleSetLevel))
	mux.HandleFunc("PUT /api/admin/users/{name}/status", s.withAdmin(s.handleSetStatus))

	return s.withRequestLog(s.withRecover(mux))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if ok, wait := s.loginLimiter.Allow(clientIP(r)); !ok {
		w.Header().Set("Retry-After", retryAfterSeconds(wait))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts"})
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing credentials"})
		return
	}

	rec, err := s.Accounts.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, account.ErrCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}

	tok, err := s.Tokens.Mint(rec, time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": tok,
		"user": map[string]any{
			"username": rec.Username,
			"level":    rec.Level.String(),
		},
	})
}

// handleFolders returns the caller's effective folder prefixes, ready
// for a client to render without re-deriving substitution.
func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	rec, err := s.Accounts.Get(r.Context(), claims.Username)
	if errors.Is(err, store.ErrNotFound) {
		// Token outlived the account.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no such user"})
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	folders, err := access.EffectiveFolders(rec)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"folders": folders,
		"level":   rec.Level.String(),
		"admin":   rec.Level.IsAdmin(),
	})
}

// handleAuthorize is the decision endpoint: malformed input is 400,
// denial is 200 with allowed=false. Clients must be able to tell the
// two apart.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var req struct {
		Operation string `json:"operation"`
		Folder    string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	op, err := access.ParseOperation(req.Operation)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid operation"})
		return
	}

	rec, err := s.Accounts.Get(r.Context(), claims.Username)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no such user"})
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}

	allowed, err := access.CanPerform(rec, op, req.Folder)
	if errors.Is(err, access.ErrBadPath) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid folder path"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"allowed": allowed})
}

// storeError maps a store failure to a generic upstream error. It
// must never look like a denial.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	s.Logger.Error("store failure", "err", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "store unavailable"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
