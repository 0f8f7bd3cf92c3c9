package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the write bursts editors produce into one reload.
const reloadDebounce = 500 * time.Millisecond

// SiteWatcher hot-reloads the site list when its file changes. Reloads
// that fail validation are logged and dropped; the last good list stays
// in effect.
type SiteWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu        sync.RWMutex
	sites     []Site
	callbacks []func([]Site)
}

// NewSiteWatcher loads the file once and begins watching its directory.
// Watching the directory rather than the file survives the
// rename-and-replace dance most editors do on save.
func NewSiteWatcher(path string, logger *slog.Logger) (*SiteWatcher, error) {
	sites, err := LoadSites(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &SiteWatcher{
		path:    path,
		watcher: fw,
		logger:  logger,
		sites:   sites,
	}, nil
}

// Sites returns the current site list.
func (w *SiteWatcher) Sites() []Site {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sites
}

// OnChange registers a callback invoked after each successful reload.
func (w *SiteWatcher) OnChange(fn func([]Site)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Watch blocks processing file events until ctx is cancelled.
func (w *SiteWatcher) Watch(ctx context.Context) {
	defer w.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("site watcher error", "component", "config", "error", err)
		}
	}
}

func (w *SiteWatcher) reload() {
	sites, err := LoadSites(w.path)
	if err != nil {
		w.logger.Warn("site reload rejected, keeping previous list",
			"component", "config",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.mu.Lock()
	w.sites = sites
	callbacks := make([]func([]Site), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("site list reloaded", "component", "config", "count", len(sites))
	for _, fn := range callbacks {
		fn(sites)
	}
}
