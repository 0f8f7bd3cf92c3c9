package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/geocode"
	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/intel"
	"github.com/nmapgithub/HELLSPHERE/internal/overlay"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
)

type handlers struct {
	svc       *intel.Service
	refresher *intel.Refresher
	store     *tle.Store
	geocode   *geocode.Client
	logger    *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseCoord reads a float query parameter and range-checks it.
func parseCoord(r *http.Request, key string, min, max float64) (float64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < min || f > max {
		return 0, false
	}
	return f, true
}

// handleIntel serves GET /api/v1/intel?lat=&lon=
func (h *handlers) handleIntel(w http.ResponseWriter, r *http.Request) {
	lat, ok := parseCoord(r, "lat", -90, 90)
	if !ok {
		writeError(w, http.StatusBadRequest, "lat must be a number in [-90,90]")
		return
	}
	lon, ok := parseCoord(r, "lon", -180, 180)
	if !ok {
		writeError(w, http.StatusBadRequest, "lon must be a number in [-180,180]")
		return
	}

	rep := h.svc.Report(r.Context(), geodesy.Point{Lat: lat, Lon: lon})
	writeJSON(w, http.StatusOK, rep)
}

// handleOverlay serves GET /api/v1/overlay
func (h *handlers) handleOverlay(w http.ResponseWriter, r *http.Request) {
	snap := h.refresher.Snapshot()
	if snap == nil {
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusServiceUnavailable, "overlay snapshot not ready")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGeocode serves GET /api/v1/geocode?q=&count=
func (h *handlers) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	count := 5
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 20 {
			writeError(w, http.StatusBadRequest, "count must be 1-20")
			return
		}
		count = n
	}

	places, err := h.geocode.Forward(r.Context(), query, count)
	if err != nil {
		h.logger.Warn("forward geocode failed", "component", "api", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, "geocoding upstream unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "places": places})
}

// handleGeofence serves GET /api/v1/geofence?south=&north=&west=&east=
func (h *handlers) handleGeofence(w http.ResponseWriter, r *http.Request) {
	south, ok := parseCoord(r, "south", -90, 90)
	if !ok {
		writeError(w, http.StatusBadRequest, "south must be a number in [-90,90]")
		return
	}
	north, ok := parseCoord(r, "north", -90, 90)
	if !ok {
		writeError(w, http.StatusBadRequest, "north must be a number in [-90,90]")
		return
	}
	west, ok := parseCoord(r, "west", -180, 180)
	if !ok {
		writeError(w, http.StatusBadRequest, "west must be a number in [-180,180]")
		return
	}
	east, ok := parseCoord(r, "east", -180, 180)
	if !ok {
		writeError(w, http.StatusBadRequest, "east must be a number in [-180,180]")
		return
	}
	if south >= north || west >= east {
		writeError(w, http.StatusBadRequest, "require south < north and west < east")
		return
	}

	box := overlay.GeofenceBox{South: south, North: north, West: west, East: east}
	writeJSON(w, http.StatusOK, map[string]any{
		"box":   box,
		"edges": overlay.BuildGeofence(box),
	})
}

// handleTLEMetadata serves GET /api/v1/tle/metadata
func (h *handlers) handleTLEMetadata(w http.ResponseWriter, r *http.Request) {
	ds := h.store.Current()
	if ds == nil {
		writeJSON(w, http.StatusOK, map[string]any{"loaded": false})
		return
	}
	age, _ := h.store.Age()
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":       true,
		"source":       ds.Source,
		"fetched_at":   ds.FetchedAt.UTC().Format(time.RFC3339),
		"record_count": len(ds.Records),
		"age_seconds":  int(age.Seconds()),
	})
}
