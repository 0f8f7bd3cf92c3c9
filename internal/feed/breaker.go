// Package feed holds the shared circuit-breaker policy for upstream data
// feeds (weather, seismic, geocoding). One failing upstream trips its own
// breaker and degrades quickly instead of stalling the request fan-out.
package feed

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nmapgithub/HELLSPHERE/internal/metrics"
)

// NewBreaker builds the breaker every feed client wraps its fetches in:
// trip at 60% failures over at least 5 requests, retry after 30s. State
// changes are logged and mirrored to the breaker gauge.
func NewBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feed breaker state change", "feed", name, "from", from.String(), "to", to.String())
			metrics.SetBreakerOpen(name, to == gobreaker.StateOpen)
		},
	})
}
