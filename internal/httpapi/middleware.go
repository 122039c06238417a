package httpapi

import (
	"net"
	"net/http"
	"strings"

	"github.com/astaXmjy/s3BucMg/internal/access"
	"github.com/astaXmjy/s3BucMg/internal/auth"
)

// authedHandler receives the verified claims alongside the request.
type authedHandler func(http.ResponseWriter, *http.Request, *auth.Claims)

// withUser requires a valid bearer token.
func (s *Server) withUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.bearerClaims(w, r)
		if !ok {
			return
		}
		next(w, r, claims)
	}
}

// withAdmin additionally requires the full access level. The level on
// the token is only a fast path; a demoted admin's token dies when
// the record no longer agrees.
func (s *Server) withAdmin(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.bearerClaims(w, r)
		if !ok {
			return
		}
		level, err := access.ParseLevel(claims.Level)
		if err != nil || !level.IsAdmin() {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
			return
		}
		rec, err := s.Accounts.Get(r.Context(), claims.Username)
		if err != nil || !rec.Level.IsAdmin() || rec.Disabled {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
			return
		}
		next(w, r, claims)
	}
}

func (s *Server) bearerClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}
	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}
	return claims, true
}

// clientIP extracts the remote IP without a port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
