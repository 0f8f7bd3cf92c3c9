// Package weather fetches raw meteorological samples and classifies them into
// discrete severity cells for the overlay layer.
package weather

import "github.com/nmapgithub/HELLSPHERE/internal/geodesy"

// Status is a categorical weather cell state.
type Status string

const (
	StatusClear  Status = "clear"
	StatusStorm  Status = "storm"
	StatusCloudy Status = "cloudy"
	StatusRain   Status = "rain"
	StatusWind   Status = "wind"
)

// Observation is a raw per-site sample. Fields are pointers because upstream
// feeds omit them freely; normalization happens at the client boundary.
type Observation struct {
	ID            string        `json:"id"`
	Coords        geodesy.Point `json:"coords"`
	Temperature   *float64      `json:"temperature,omitempty"`
	Precipitation *float64      `json:"precipitation,omitempty"`
	CloudCover    *float64      `json:"cloudcover,omitempty"`
	WindSpeed     *float64      `json:"windspeed,omitempty"`
}

// Cell is a derived, immutable classification of one observation.
type Cell struct {
	ID          string        `json:"id"`
	Coords      geodesy.Point `json:"coords"`
	Status      Status        `json:"status"`
	Severity    float64       `json:"severity"`
	Multipliers []float64     `json:"multipliers"`
}
