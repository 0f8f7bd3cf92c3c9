// Package geocode resolves coordinate metadata (reverse), free-text place
// queries (forward), ground elevation, and imagery references. All upstream
// responses are loosely structured; they are validated and normalized into
// explicit optional-field records here, before anything reaches the pure core.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nmapgithub/HELLSPHERE/internal/feed"
	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
)

// Place is a normalized geocoding result.
type Place struct {
	Name       string        `json:"name"`
	Country    string        `json:"country,omitempty"`
	Region     string        `json:"region,omitempty"`
	Population *int64        `json:"population,omitempty"`
	Elevation  *float64      `json:"elevation,omitempty"`
	Coords     geodesy.Point `json:"coords"`
	BBox       *BBox         `json:"bbox,omitempty"`
}

// BBox is a degree-space bounding box, south<north and west<east
// (caller-validated).
type BBox struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

const (
	defaultForwardURL   = "https://geocoding-api.open-meteo.com/v1/search"
	defaultReverseURL   = "https://api.bigdatacloud.net/data/reverse-geocode-client"
	defaultElevationURL = "https://api.open-meteo.com/v1/elevation"
)

// Config points the client at its upstream endpoints. Zero values select the
// public defaults.
type Config struct {
	ForwardURL   string
	ReverseURL   string
	ElevationURL string
}

// Client performs forward/reverse geocoding and elevation lookups.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a geocoding client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.ForwardURL == "" {
		cfg.ForwardURL = defaultForwardURL
	}
	if cfg.ReverseURL == "" {
		cfg.ReverseURL = defaultReverseURL
	}
	if cfg.ElevationURL == "" {
		cfg.ElevationURL = defaultElevationURL
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: feed.NewBreaker("geocode", logger),
		logger:  logger,
	}
}

type forwardPayload struct {
	Results []struct {
		Name       string   `json:"name"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		Country    string   `json:"country"`
		Admin1     string   `json:"admin1"`
		Population *int64   `json:"population"`
		Elevation  *float64 `json:"elevation"`
	} `json:"results"`
}

// Forward resolves a free-text query into up to count places. Results without
// coordinates are dropped at the boundary.
func (c *Client) Forward(ctx context.Context, query string, count int) ([]Place, error) {
	if count <= 0 {
		count = 5
	}
	q := url.Values{}
	q.Set("name", query)
	q.Set("count", fmt.Sprint(count))

	var payload forwardPayload
	if err := c.getJSON(ctx, c.cfg.ForwardURL+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		lat, lon := *r.Latitude, *r.Longitude
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		p := Place{
			Name:       r.Name,
			Country:    r.Country,
			Region:     r.Admin1,
			Population: r.Population,
			Elevation:  r.Elevation,
			Coords:     geodesy.Point{Lat: lat, Lon: lon},
		}
		// A coarse display box around the place; overlay-sized, not cadastral.
		p.BBox = &BBox{
			South: lat - 0.25, North: lat + 0.25,
			West: lon - 0.25, East: lon + 0.25,
		}
		places = append(places, p)
	}
	return places, nil
}

type reversePayload struct {
	CountryName          string `json:"countryName"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	Locality             string `json:"locality"`
}

// Reverse resolves metadata for a coordinate.
func (c *Client) Reverse(ctx context.Context, p geodesy.Point) (Place, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", p.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", p.Lon))

	var payload reversePayload
	if err := c.getJSON(ctx, c.cfg.ReverseURL+"?"+q.Encode(), &payload); err != nil {
		return Place{}, err
	}

	return Place{
		Name:    payload.Locality,
		Country: payload.CountryName,
		Region:  payload.PrincipalSubdivision,
		Coords:  p,
	}, nil
}

type elevationPayload struct {
	Elevation []float64 `json:"elevation"`
}

// Elevation returns the ground elevation in meters for a coordinate, or nil
// when the upstream omits it.
func (c *Client) Elevation(ctx context.Context, p geodesy.Point) (*float64, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", p.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", p.Lon))

	var payload elevationPayload
	if err := c.getJSON(ctx, c.cfg.ElevationURL+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}
	if len(payload.Elevation) == 0 {
		return nil, nil
	}
	return &payload.Elevation[0], nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.fetchJSON(ctx, rawURL, out)
	})
	return err
}

func (c *Client) fetchJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
