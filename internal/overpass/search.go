// Package overpass predicts near-term satellite overpasses for a ground
// coordinate by sampling each object's ground track over a bounded window and
// keeping the minimum great-circle distance.
package overpass

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/propagation"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
	"github.com/nmapgithub/HELLSPHERE/internal/transform"
)

// Pass is the single best approach of one satellite to the ground point
// within the search window.
type Pass struct {
	Name       string    `json:"name"`
	CatalogID  int       `json:"catalog_id"`
	DistanceKm float64   `json:"distance_km"`
	PassTime   time.Time `json:"pass_time"`
	AltitudeKm float64   `json:"altitude_km,omitempty"`
}

// Track yields geodetic subpoints at arbitrary times. Satisfied by
// *propagation.Orbit; tests substitute synthetic tracks.
type Track interface {
	SubpointAt(t time.Time) (transform.Subpoint, error)
}

// Params bounds a search.
type Params struct {
	Lookahead         time.Duration // search window from Start (default 2h)
	Step              time.Duration // sampling interval (default 60s)
	RelevanceRadiusKm float64       // discard passes beyond this (default 2500)
	MaxPasses         int           // truncate the sorted result (default 5)
}

func (p Params) withDefaults() Params {
	if p.Lookahead <= 0 {
		p.Lookahead = 2 * time.Hour
	}
	if p.Step <= 0 {
		p.Step = 60 * time.Second
	}
	if p.RelevanceRadiusKm <= 0 {
		p.RelevanceRadiusKm = 2500
	}
	if p.MaxPasses <= 0 {
		p.MaxPasses = 5
	}
	return p
}

// Search scans all records for their closest approach to ground within
// [start, start+lookahead]. Records that fail SGP4 init, fail at every
// sample, or never come within the relevance radius yield no pass. Searches
// fan out with bounded concurrency; the final ordering never depends on
// scheduling because results are sorted by distance before truncation.
func Search(ctx context.Context, records []tle.Record, ground geodesy.Point, start time.Time, params Params, logger *slog.Logger) []Pass {
	entries := make([]trackEntry, 0, len(records))
	for _, rec := range records {
		orbit, err := propagation.NewOrbit(rec)
		if err != nil {
			logger.Warn("skipping record with bad orbital elements", "name", rec.Name, "error", err)
			continue
		}
		entries = append(entries, trackEntry{
			name:      rec.Name,
			catalogID: rec.CatalogID(),
			track:     orbit,
		})
	}
	return searchTracks(ctx, entries, ground, start, params)
}

// trackEntry pairs a track with the identity its pass is reported under.
type trackEntry struct {
	name      string
	catalogID int
	track     Track
}

// searchTracks runs the sampling stage over every track with bounded
// concurrency, then sorts the surviving passes ascending by distance and
// truncates to MaxPasses.
func searchTracks(ctx context.Context, entries []trackEntry, ground geodesy.Point, start time.Time, params Params) []Pass {
	params = params.withDefaults()

	candidates := make([]*Pass, len(entries))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, e := range entries {
		wg.Add(1)
		go func(idx int, e trackEntry) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if pass, ok := ClosestApproach(ctx, e.track, e.name, ground, start, params); ok {
				pass.CatalogID = e.catalogID
				candidates[idx] = &pass
			}
		}(i, e)
	}
	wg.Wait()

	passes := make([]Pass, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			passes = append(passes, *c)
		}
	}

	sort.Slice(passes, func(i, j int) bool {
		return passes[i].DistanceKm < passes[j].DistanceKm
	})
	if len(passes) > params.MaxPasses {
		passes = passes[:params.MaxPasses]
	}
	return passes
}

// ClosestApproach samples the track at t = 0, step, 2·step, ... ≤ lookahead
// and retains the minimum ground distance. A propagation failure at a single
// sample is skipped, not fatal. Returns false when no sample succeeds or the
// minimum exceeds the relevance radius.
func ClosestApproach(ctx context.Context, track Track, name string, ground geodesy.Point, start time.Time, params Params) (Pass, bool) {
	params = params.withDefaults()

	var (
		best    Pass
		sampled bool
	)

	for offset := time.Duration(0); offset <= params.Lookahead; offset += params.Step {
		if ctx.Err() != nil {
			break
		}

		t := start.Add(offset)
		sp, err := track.SubpointAt(t)
		if err != nil {
			continue
		}

		d := geodesy.DistanceKm(ground, geodesy.Point{Lat: sp.LatDeg, Lon: sp.LonDeg})
		if !sampled || d < best.DistanceKm {
			best = Pass{
				Name:       name,
				DistanceKm: d,
				PassTime:   t,
				AltitudeKm: sp.AltKm,
			}
			sampled = true
		}
	}

	if !sampled || best.DistanceKm > params.RelevanceRadiusKm {
		return Pass{}, false
	}
	return best, true
}
