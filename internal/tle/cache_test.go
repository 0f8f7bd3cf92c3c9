package tle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 3)

	ts := time.Unix(1700000000, 0)
	data := []byte("ISS (ZARYA)\n1 25544U ...\n2 25544 ...\n")
	if err := c.Write(data, ts); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, gotTS, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("data mismatch: got %q", got)
	}
	if !gotTS.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", gotTS, ts)
	}
}

func TestCacheLoadLatestPicksNewest(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 5)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		data := []byte{byte('a' + i)}
		if err := c.Write(data, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	got, _, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if string(got) != "c" {
		t.Errorf("got %q, want newest file %q", got, "c")
	}
}

func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		if err := c.Write([]byte("x"), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d files after prune, want 2", len(entries))
	}
}

func TestCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 5)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tle_garbage.txt"), []byte("g"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := c.LoadLatest(); err == nil {
		t.Error("expected error when only foreign files exist")
	}
}

func TestCacheLoadLatestEmpty(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "missing"), 5)
	if _, _, err := c.LoadLatest(); err == nil {
		t.Error("expected error for missing cache dir")
	}
}
