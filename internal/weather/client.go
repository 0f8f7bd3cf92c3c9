package weather

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

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Client fetches current-conditions samples for a coordinate. Upstream calls
// run through a circuit breaker so a failing feed degrades quickly instead of
// stalling every request in the aggregation fan-out.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a weather client. baseURL falls back to the public
// Open-Meteo endpoint when empty.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: feed.NewBreaker("weather", logger),
		logger:  logger,
	}
}

// currentPayload mirrors the loose upstream shape. Every field is optional.
type currentPayload struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		Precipitation *float64 `json:"precipitation"`
		CloudCover    *float64 `json:"cloud_cover"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current fetches the current observation for the given site coordinate.
func (c *Client) Current(ctx context.Context, id string, p geodesy.Point) (Observation, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, p)
	})
	if err != nil {
		return Observation{}, err
	}

	payload := result.(*currentPayload)
	return Observation{
		ID:            id,
		Coords:        p,
		Temperature:   payload.Current.Temperature,
		Precipitation: payload.Current.Precipitation,
		CloudCover:    payload.Current.CloudCover,
		WindSpeed:     payload.Current.WindSpeed,
	}, nil
}

func (c *Client) fetch(ctx context.Context, p geodesy.Point) (*currentPayload, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", p.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", p.Lon))
	q.Set("current", "temperature_2m,precipitation,cloud_cover,wind_speed_10m")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from weather feed", resp.StatusCode)
	}

	var payload currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}
	return &payload, nil
}
