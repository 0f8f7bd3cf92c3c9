package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validSitesYAML = `sites:
  - id: tokyo
    name: Tokyo
    lat: 35.6762
    lon: 139.6503
  - id: london
    name: London
    lat: 51.5074
    lon: -0.1278
`

func writeSitesFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sites.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sites file: %v", err)
	}
	return path
}

func TestLoadSites(t *testing.T) {
	path := writeSitesFile(t, t.TempDir(), validSitesYAML)
	sites, err := LoadSites(path)
	if err != nil {
		t.Fatalf("LoadSites: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}
	if sites[0].ID != "tokyo" || sites[0].Lat != 35.6762 {
		t.Errorf("unexpected first site: %+v", sites[0])
	}
}

func TestLoadSitesRejectsOutOfRange(t *testing.T) {
	path := writeSitesFile(t, t.TempDir(), `sites:
  - id: bad
    name: Nowhere
    lat: 95
    lon: 10
`)
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected validation error for lat=95")
	}
}

func TestLoadSitesRejectsMissingName(t *testing.T) {
	path := writeSitesFile(t, t.TempDir(), `sites:
  - id: anon
    lat: 10
    lon: 10
`)
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestLoadSitesRejectsDuplicateIDs(t *testing.T) {
	path := writeSitesFile(t, t.TempDir(), `sites:
  - id: dup
    name: One
    lat: 1
    lon: 1
  - id: dup
    name: Two
    lat: 2
    lon: 2
`)
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadSitesRejectsEmptyList(t *testing.T) {
	path := writeSitesFile(t, t.TempDir(), "sites: []\n")
	if _, err := LoadSites(path); err == nil {
		t.Fatal("expected error for empty site list")
	}
}

func TestDefaultSitesValid(t *testing.T) {
	for _, s := range DefaultSites() {
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			t.Errorf("default site %s has out-of-range coords: %+v", s.ID, s)
		}
	}
}

func TestSiteWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := writeSitesFile(t, dir, validSitesYAML)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	w, err := NewSiteWatcher(path, logger)
	if err != nil {
		t.Fatalf("NewSiteWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx)

	changed := make(chan []Site, 1)
	w.OnChange(func(sites []Site) {
		select {
		case changed <- sites:
		default:
		}
	})

	writeSitesFile(t, dir, validSitesYAML+`  - id: nyc
    name: New York
    lat: 40.7128
    lon: -74.0060
`)

	select {
	case sites := <-changed:
		if len(sites) != 3 {
			t.Fatalf("expected 3 sites after reload, got %d", len(sites))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if got := len(w.Sites()); got != 3 {
		t.Fatalf("Sites() after reload = %d, want 3", got)
	}
}

func TestSiteWatcherKeepsLastGoodOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeSitesFile(t, dir, validSitesYAML)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	w, err := NewSiteWatcher(path, logger)
	if err != nil {
		t.Fatalf("NewSiteWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx)

	writeSitesFile(t, dir, "sites: []\n")

	// Give the debounced reload time to run and be rejected.
	time.Sleep(reloadDebounce + time.Second)

	if got := len(w.Sites()); got != 2 {
		t.Fatalf("Sites() after invalid reload = %d, want previous 2", got)
	}
}
