package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/config"
	"github.com/nmapgithub/HELLSPHERE/internal/intel"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
	"github.com/nmapgithub/HELLSPHERE/internal/weather"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func testStore() *tle.Store {
	store := tle.NewStore()
	store.Replace(&tle.Dataset{
		Source:    "test",
		FetchedAt: time.Now().Add(-30 * time.Minute),
	})
	return store
}

// testRefresher runs one real refresh cycle against a stub weather feed so
// the handler has a snapshot to stream.
func testRefresher(t *testing.T) *intel.Refresher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"current":{"temperature_2m":15,"precipitation":0,"cloud_cover":10,"wind_speed_10m":2}}`)
	}))
	t.Cleanup(srv.Close)

	sites := func() []config.Site {
		return []config.Site{
			{ID: "a", Name: "A", Lat: 10, Lon: 10},
			{ID: "b", Name: "B", Lat: 20, Lon: 20},
		}
	}
	r := intel.NewRefresher(sites, weather.NewClient(srv.URL, testLogger()), intel.RefreshConfig{}, testLogger())
	r.RunOnce(context.Background())
	return r
}

// TestSSEMessageFormat verifies the SSE wire format: "data: {json}\n\n".
func TestSSEMessageFormat(t *testing.T) {
	handler := NewHandler(testRefresher(t), testStore(), Config{
		MaxConcurrentPerIP: 10,
		PollInterval:       50 * time.Millisecond,
		KeepaliveInterval:  5 * time.Second,
	}, testLogger())

	req := httptest.NewRequest("GET", "/api/v1/stream/overlay", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	ctx, cancel := context.WithTimeout(req.Context(), 500*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	handler.HandleOverlay(w, req)

	resp := w.Result()
	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", resp.Header.Get("Cache-Control"))
	}

	body := w.Body.String()
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var sawMetadata, sawSnapshot bool
	var firstData string
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		jsonStr := strings.TrimPrefix(line, "data: ")
		if firstData == "" {
			firstData = jsonStr
		}
		var msg map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &msg); err != nil {
			t.Errorf("invalid JSON in SSE data line: %v", err)
			continue
		}
		switch msg["type"] {
		case "metadata":
			sawMetadata = true
			if _, ok := msg["snapshot_epoch"]; !ok {
				t.Error("metadata missing snapshot_epoch")
			}
			if _, ok := msg["tle_age_seconds"]; !ok {
				t.Error("metadata missing tle_age_seconds")
			}
		case "overlay_snapshot":
			sawSnapshot = true
			snap, ok := msg["snapshot"].(map[string]any)
			if !ok {
				t.Fatal("overlay_snapshot missing snapshot object")
			}
			if snap["sites_ok"].(float64) != 2 {
				t.Errorf("snapshot sites_ok = %v, want 2", snap["sites_ok"])
			}
		}
	}

	if !sawMetadata {
		t.Error("did not receive metadata message")
	}
	if !sawSnapshot {
		t.Error("did not receive overlay snapshot message")
	}

	// Metadata must come first.
	var first map[string]any
	if err := json.Unmarshal([]byte(firstData), &first); err == nil {
		if first["type"] != "metadata" {
			t.Errorf("first message type = %v, want metadata", first["type"])
		}
	}

	// Verify SSE framing: data lines, retry lines, keepalive comments only.
	for _, line := range strings.Split(body, "\n") {
		if line == "" || line == ":" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") && !strings.HasPrefix(line, "retry: ") {
			t.Errorf("unexpected SSE line: %q", line)
		}
	}
}

// TestRateLimiting verifies per-IP concurrent stream limits.
func TestRateLimiting(t *testing.T) {
	limiter := newConnLimiter(3)

	for i := 0; i < 3; i++ {
		if !limiter.admit("10.0.0.1") {
			t.Fatalf("admit %d should succeed", i+1)
		}
	}

	if limiter.admit("10.0.0.1") {
		t.Error("admit beyond the per-IP cap should fail")
	}

	if !limiter.admit("10.0.0.2") {
		t.Error("different IP should not be rate limited")
	}

	limiter.done("10.0.0.1")
	if !limiter.admit("10.0.0.1") {
		t.Error("admit after done should succeed")
	}

	if c := limiter.active("10.0.0.1"); c != 3 {
		t.Errorf("active = %d, want 3", c)
	}
	if c := limiter.active("10.0.0.2"); c != 1 {
		t.Errorf("active = %d, want 1", c)
	}
}

// TestRateLimitingConcurrent verifies rate limiter thread safety.
func TestRateLimitingConcurrent(t *testing.T) {
	limiter := newConnLimiter(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.admit("10.0.0.1") {
				defer limiter.done("10.0.0.1")
				time.Sleep(10 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if c := limiter.active("10.0.0.1"); c != 0 {
		t.Errorf("active after all done = %d, want 0", c)
	}
}

// TestRateLimitHTTPResponse verifies 429 response when the limit is hit.
func TestRateLimitHTTPResponse(t *testing.T) {
	handler := NewHandler(testRefresher(t), testStore(), Config{
		MaxConcurrentPerIP: 1,
		PollInterval:       time.Second,
		KeepaliveInterval:  30 * time.Second,
	}, testLogger())

	// Hold the first connection open.
	firstCtx, cancelFirst := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest("GET", "/api/v1/stream/overlay", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		req = req.WithContext(firstCtx)
		handler.HandleOverlay(httptest.NewRecorder(), req)
	}()

	// Wait for the first connection to register.
	deadline := time.Now().Add(2 * time.Second)
	for handler.limiter.active("10.0.0.1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	req := httptest.NewRequest("GET", "/api/v1/stream/overlay", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	w := httptest.NewRecorder()
	handler.HandleOverlay(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second connection status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want 30", w.Header().Get("Retry-After"))
	}

	cancelFirst()
	<-done
}

// TestMetadataMessageJSON verifies the metadata message format.
func TestMetadataMessageJSON(t *testing.T) {
	msg := metadataMessage{
		Type:          "metadata",
		SnapshotEpoch: "2026-02-06T03:45:00Z",
		TLEAge:        1800,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}

	if parsed["type"] != "metadata" {
		t.Errorf("type = %v, want metadata", parsed["type"])
	}
	if parsed["snapshot_epoch"] != "2026-02-06T03:45:00Z" {
		t.Errorf("snapshot_epoch = %v, want 2026-02-06T03:45:00Z", parsed["snapshot_epoch"])
	}
	if parsed["tle_age_seconds"].(float64) != 1800 {
		t.Errorf("tle_age_seconds = %v, want 1800", parsed["tle_age_seconds"])
	}
}
