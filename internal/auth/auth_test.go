package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protected(cfg Config) http.Handler {
	return Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	h := protected(Config{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/intel", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", w.Code)
	}
}

func TestMiddlewareEnforcesToken(t *testing.T) {
	h := protected(Config{Enabled: true, Token: "orbital-pass"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic orbital-pass", http.StatusUnauthorized},
		{"wrong token", "Bearer wrong", http.StatusUnauthorized},
		{"correct token", "Bearer orbital-pass", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/overlay", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMiddlewarePublicPaths(t *testing.T) {
	h := protected(Config{Enabled: true, Token: "orbital-pass"})

	for _, path := range []string{
		"/healthz",
		"/readyz",
		"/metrics",
		"/api/v1/tle/metadata",
		"/imagery/5/28/12.png",
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("public path %s returned %d without credentials", path, w.Code)
		}
	}
}
