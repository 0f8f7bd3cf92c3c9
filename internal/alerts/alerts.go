// Package alerts pulls recent seismic events and filters them to those near a
// ground coordinate.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nmapgithub/HELLSPHERE/internal/feed"
	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
)

// DefaultRadiusKm is the fixed alert relevance radius.
const DefaultRadiusKm = 500.0

// Info is a normalized seismic alert near the requested coordinate.
type Info struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Source     string        `json:"source"`
	Severity   *float64      `json:"severity,omitempty"`
	Magnitude  *float64      `json:"magnitude,omitempty"`
	Coords     geodesy.Point `json:"coords"`
	DistanceKm float64       `json:"distance_km"`
	HappenedAt time.Time     `json:"happened_at"`
}

// Event is a normalized feed entry before distance filtering.
type Event struct {
	ID        string
	Title     string
	Magnitude *float64
	Coords    geodesy.Point
	Time      time.Time
}

// Filter keeps events within radiusKm of ground, annotated with their
// distance and sorted nearest-first. radiusKm <= 0 uses DefaultRadiusKm.
func Filter(events []Event, ground geodesy.Point, radiusKm float64) []Info {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	out := make([]Info, 0, len(events))
	for _, e := range events {
		d := geodesy.DistanceKm(ground, e.Coords)
		if d > radiusKm {
			continue
		}
		info := Info{
			ID:         e.ID,
			Title:      e.Title,
			Source:     "usgs",
			Magnitude:  e.Magnitude,
			Coords:     e.Coords,
			DistanceKm: d,
			HappenedAt: e.Time,
		}
		if e.Magnitude != nil {
			sev := clampSeverity(*e.Magnitude / 10.0)
			info.Severity = &sev
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

func clampSeverity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

const defaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"

// Client fetches the recent-events feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a seismic feed client, defaulting to the USGS all-day
// summary feed.
func NewClient(feedURL string, logger *slog.Logger) *Client {
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: feed.NewBreaker("seismic", logger),
	}
}

// feedPayload mirrors the loose GeoJSON feed shape; only the fields the core
// needs are decoded, all optional.
type feedPayload struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Mag   *float64 `json:"mag"`
			Title string   `json:"title"`
			Time  *int64   `json:"time"` // epoch millis
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
		} `json:"geometry"`
	} `json:"features"`
}

// Recent fetches and normalizes the feed. Entries without usable coordinates
// are dropped at the boundary.
func (c *Client) Recent(ctx context.Context) ([]Event, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Event), nil
}

func (c *Client) fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching seismic feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from seismic feed", resp.StatusCode)
	}

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding seismic feed: %w", err)
	}

	events := make([]Event, 0, len(payload.Features))
	for _, f := range payload.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		lat := f.Geometry.Coordinates[1]
		lon := f.Geometry.Coordinates[0]
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}

		ev := Event{
			ID:        f.ID,
			Title:     f.Properties.Title,
			Magnitude: f.Properties.Mag,
			Coords:    geodesy.Point{Lat: lat, Lon: lon},
		}
		if f.Properties.Time != nil {
			ev.Time = time.UnixMilli(*f.Properties.Time).UTC()
		}
		events = append(events, ev)
	}
	return events, nil
}
