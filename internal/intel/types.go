// Package intel merges orbital, meteorological, seismic, and geographic
// context for a ground coordinate into a single report, and maintains the
// periodically refreshed overlay snapshot behind the map surface.
package intel

import (
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/alerts"
	"github.com/nmapgithub/HELLSPHERE/internal/geocode"
	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/overlay"
	"github.com/nmapgithub/HELLSPHERE/internal/overpass"
	"github.com/nmapgithub/HELLSPHERE/internal/weather"
)

// Report is the merged per-coordinate response. Every category is
// best-effort: a failed fetch leaves its field empty and its name in
// Degraded, and the report still returns.
type Report struct {
	RequestID   string               `json:"request_id"`
	Coords      geodesy.Point        `json:"coords"`
	GeneratedAt time.Time            `json:"generated_at"`
	Place       *geocode.Place       `json:"place,omitempty"`
	ElevationM  *float64             `json:"elevation_m,omitempty"`
	Imagery     []geocode.ImageryRef `json:"imagery,omitempty"`
	Weather     *weather.Cell        `json:"weather,omitempty"`
	Observation *weather.Observation `json:"observation,omitempty"`
	Passes      []overpass.Pass      `json:"passes"`
	Alerts      []alerts.Info        `json:"alerts"`
	Degraded    []string             `json:"degraded,omitempty"`
}

// Snapshot is one complete overlay generation, swapped atomically by the
// refresh cycle and served read-only until the next swap.
type Snapshot struct {
	GeneratedAt time.Time               `json:"generated_at"`
	SitesOK     int                     `json:"sites_ok"`
	Cells       []weather.Cell          `json:"cells"`
	Heatmap     []overlay.HeatmapPoint  `json:"heatmap"`
	Routes      []overlay.RouteArc      `json:"routes"`
	Timeline    []overlay.TimelineEvent `json:"timeline"`
	Fence       [][]geodesy.Vec3        `json:"fence"`
}
