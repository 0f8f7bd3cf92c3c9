// Package stream implements Server-Sent Events (SSE) streaming of overlay
// snapshots. Clients connect via GET /api/v1/stream/overlay and receive the
// current snapshot plus every subsequent generation as the refresh cycle
// swaps them in.
//
// First message is always metadata:
//
//	data: {"type":"metadata","snapshot_epoch":"...","tle_age_seconds":1800}\n\n
//
// Snapshot messages follow whenever a new generation lands:
//
//	data: {"type":"overlay_snapshot","snapshot":{...}}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// idle timeouts. Reconnecting clients receive fresh metadata each time.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/httputil"
	"github.com/nmapgithub/HELLSPHERE/internal/intel"
	"github.com/nmapgithub/HELLSPHERE/internal/metrics"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
)

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	PollInterval       time.Duration // Snapshot poll cadence (default: 5s).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Trust X-Forwarded-For for rate limiting.
}

type metadataMessage struct {
	Type          string `json:"type"`
	SnapshotEpoch string `json:"snapshot_epoch,omitempty"`
	TLEAge        int    `json:"tle_age_seconds,omitempty"`
}

type snapshotMessage struct {
	Type     string          `json:"type"`
	Snapshot *intel.Snapshot `json:"snapshot"`
}

// Handler manages SSE streaming connections.
type Handler struct {
	refresher *intel.Refresher
	store     *tle.Store
	config    Config
	limiter   *connLimiter
	logger    *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(refresher *intel.Refresher, store *tle.Store, config Config, logger *slog.Logger) *Handler {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	return &Handler{
		refresher: refresher,
		store:     store,
		config:    config,
		limiter:   newConnLimiter(config.MaxConcurrentPerIP),
		logger:    logger,
	}
}

// HandleOverlay serves the SSE overlay-snapshot stream.
// GET /api/v1/stream/overlay
func (h *Handler) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.admit(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.active(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
	)

	// Cleanup on disconnect: release rate limit slot and update metrics.
	defer func() {
		h.limiter.done(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	// ResponseController manages flushing and write deadlines for the
	// long-lived connection; it follows Unwrap through middleware wrappers.
	rc := http.NewResponseController(w)

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		metrics.IncStreamErrors("no_flush")
		h.logger.Warn("streaming not supported by connection", "remote_ip", ip, "error", err)
		return
	}

	// Clear the server's default WriteTimeout for this connection.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:      w,
		rc:     rc,
		ip:     ip,
		logger: h.logger,
	}

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	if err := rc.Flush(); err != nil {
		h.logger.Debug("flush failed", "error", err)
	}

	// Send metadata message (first message on every connection).
	meta := metadataMessage{Type: "metadata"}
	if snap := h.refresher.Snapshot(); snap != nil {
		meta.SnapshotEpoch = snap.GeneratedAt.UTC().Format(time.RFC3339)
	}
	if age, ok := h.store.Age(); ok {
		meta.TLEAge = int(age.Seconds())
	}
	if err := c.sendJSON(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	// Send the current snapshot immediately, then watch for new generations.
	var lastSent time.Time
	if snap := h.refresher.Snapshot(); snap != nil {
		if err := c.sendJSON(snapshotMessage{Type: "overlay_snapshot", Snapshot: snap}); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
			return
		}
		lastSent = snap.GeneratedAt
	}

	ticker := time.NewTicker(h.config.PollInterval)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			snap := h.refresher.Snapshot()
			if snap == nil || !snap.GeneratedAt.After(lastSent) {
				continue
			}
			if err := c.sendJSON(snapshotMessage{Type: "overlay_snapshot", Snapshot: snap}); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}
			lastSent = snap.GeneratedAt

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}
