// Package overlay synthesizes derived visualization data — heatmap
// intensities, route arcs, a timeline, and geofence boundaries — from
// classified weather cells. Everything here is deterministic and allocation
// fresh per refresh cycle; nothing is persisted.
package overlay

import (
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
)

// HeatmapPoint is one site's normalized thermal intensity.
type HeatmapPoint struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Coords      geodesy.Point `json:"coords"`
	Intensity   float64       `json:"intensity"`
	Multipliers []float64     `json:"multipliers"`
}

// RouteArc connects two heatmap points with a midpoint lifted off the sphere.
type RouteArc struct {
	ID          string        `json:"id"`
	From        geodesy.Point `json:"from"`
	To          geodesy.Point `json:"to"`
	Midpoint    geodesy.Vec3  `json:"midpoint"`
	Magnitude   float64       `json:"magnitude"`
	Multipliers []float64     `json:"multipliers"`
}

// TimelineEvent is one fixed-offset sample in the activity timeline.
type TimelineEvent struct {
	ID                 string    `json:"id"`
	Label              string    `json:"label"`
	Description        string    `json:"description"`
	Timestamp          time.Time `json:"timestamp"`
	OverlayMultipliers []float64 `json:"overlay_multipliers"`
}

// GeofenceBox is a degree-space bounding box. The caller guarantees
// south < north and west < east.
type GeofenceBox struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// Sample is the aggregator's per-site input: identity plus the raw
// temperature used for heatmap normalization.
type Sample struct {
	ID          string
	Name        string
	Coords      geodesy.Point
	Temperature *float64
}
