// Package auth guards the API surface with an optional static bearer token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Config enables token auth. When Enabled is false the middleware is a
// pass-through.
type Config struct {
	Enabled bool
	Token   string
}

// public reports whether a path must stay reachable without credentials:
// liveness/readiness probes, the metrics scrape endpoint, the TLE metadata
// summary, and imagery tiles.
func public(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/api/v1/tle/metadata":
		return true
	}
	return strings.HasPrefix(path, "/imagery/")
}

// Middleware enforces bearer auth on non-public paths.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if !bearerMatches(r.Header.Get("Authorization"), cfg.Token) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerMatches compares the presented Authorization header against the
// configured token in constant time.
func bearerMatches(header, want string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(want)) == 1
}
