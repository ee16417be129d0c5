package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const tokenHeader = "X-API-Token"

// requestToken returns the token from X-API-Token or a bearer Authorization header.
func requestToken(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(tokenHeader)); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// requireToken rejects requests that do not carry a stored token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := requestToken(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "missing api token")
			return
		}

		ok, err := s.store.TokenExists(r.Context(), tok)
		if err != nil {
			zap.L().Error("server: token lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid api token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
