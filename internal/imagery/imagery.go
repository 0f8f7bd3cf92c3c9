// Package imagery serves cached map tiles and exported snapshots from a
// local directory on a dedicated listener, separate from the API server so
// bulk tile traffic never competes with intel requests. The server is an
// explicit handle owned by main: constructed there, started there, shut
// down there.
package imagery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config holds the auxiliary server settings.
type Config struct {
	Addr string // listen address (default :8081)
	Dir  string // tile/export directory (default /tmp/hellsphere/imagery)
}

// Server is the imagery file server handle.
type Server struct {
	httpServer *http.Server
	dir        string
	logger     *slog.Logger
}

// NewServer creates the handle without binding the listener.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8081"
	}
	if cfg.Dir == "" {
		cfg.Dir = "/tmp/hellsphere/imagery"
	}

	mux := http.NewServeMux()
	mux.Handle("GET /imagery/", http.StripPrefix("/imagery/", cacheHeaders(http.FileServer(http.Dir(cfg.Dir)))))

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		dir:    cfg.Dir,
		logger: logger,
	}
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start creates the tile directory if needed and serves until Shutdown.
// Blocks like http.Server.ListenAndServe; returns nil on clean shutdown.
func (s *Server) Start() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create imagery dir: %w", err)
	}

	s.logger.Info("imagery server starting",
		"component", "imagery",
		"addr", s.httpServer.Addr,
		"dir", s.dir,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("imagery server stopping", "component", "imagery")
	return s.httpServer.Shutdown(ctx)
}

// cacheHeaders marks tiles as immutable; tile content for a given path
// never changes, only new paths appear.
func cacheHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
		next.ServeHTTP(w, r)
	})
}
