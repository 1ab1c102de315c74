package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenAuth validates bearer tokens against a configured allow list.
// An empty list disables authentication.
type TokenAuth struct {
	digests [][32]byte
}

func NewTokenAuth(tokens []string) *TokenAuth {
	auth := &TokenAuth{}
	for _, tok := range tokens {
		trimmed := strings.TrimSpace(tok)
		if trimmed == "" {
			continue
		}
		auth.digests = append(auth.digests, sha256.Sum256([]byte(trimmed)))
	}
	return auth
}

func (a *TokenAuth) enabled() bool {
	return a != nil && len(a.digests) > 0
}

func (a *TokenAuth) authorized(header string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	digest := sha256.Sum256([]byte(strings.TrimSpace(header[len(prefix):])))
	for _, want := range a.digests {
		if subtle.ConstantTimeCompare(digest[:], want[:]) == 1 {
			return true
		}
	}
	return false
}

// Middleware rejects requests that lack a recognised bearer token.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.enabled() && !a.authorized(r.Header.Get("Authorization")) {
			writeJSON(w, http.StatusUnauthorized, apiError{Code: "unauthorized", Message: "missing or invalid bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
