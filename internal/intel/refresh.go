package intel

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/config"
	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/metrics"
	"github.com/nmapgithub/HELLSPHERE/internal/overlay"
	"github.com/nmapgithub/HELLSPHERE/internal/weather"
)

// fencePadDeg pads the site bounding box so fence lines sit outside the
// outermost markers.
const fencePadDeg = 5.0

// RefreshConfig bounds the periodic overlay rebuild.
type RefreshConfig struct {
	Interval time.Duration // cycle period (default 10m)
	Workers  int           // concurrent site fetches (default 4)
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
	if c.Workers < 1 {
		c.Workers = 4
	}
	return c
}

// Refresher periodically sweeps the sample sites, reclassifies their
// weather, and swaps in a fresh overlay snapshot. Cycles are independent;
// a slow cycle overlapping the next tick is tolerated because the swap is
// atomic either way.
type Refresher struct {
	sites   func() []config.Site
	weather *weather.Client
	cfg     RefreshConfig
	logger  *slog.Logger
	snap    atomic.Pointer[Snapshot]
}

// NewRefresher creates a refresher. sites is called at the start of every
// cycle so a hot-reloaded list takes effect on the next sweep.
func NewRefresher(sites func() []config.Site, wc *weather.Client, cfg RefreshConfig, logger *slog.Logger) *Refresher {
	return &Refresher{
		sites:   sites,
		weather: wc,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Snapshot returns the latest overlay snapshot, or nil before the first
// cycle completes.
func (r *Refresher) Snapshot() *Snapshot {
	return r.snap.Load()
}

// Ready reports whether at least one cycle has completed.
func (r *Refresher) Ready() bool {
	return r.snap.Load() != nil
}

// Run executes one cycle immediately, then one per interval until ctx is
// cancelled.
func (r *Refresher) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

type siteResult struct {
	site config.Site
	obs  weather.Observation
	err  error
}

// RunOnce performs a single sweep and snapshot swap. Sites whose fetch
// fails are dropped from this generation; the cycle fails only when every
// site fails.
func (r *Refresher) RunOnce(ctx context.Context) {
	start := time.Now()
	sites := r.sites()
	if len(sites) == 0 {
		r.logger.Warn("refresh skipped, no sites configured", "component", "refresh")
		metrics.ObserveRefreshCycle(time.Since(start), 0, true)
		return
	}

	jobs := make(chan config.Site, r.cfg.Workers*2)
	results := make(chan siteResult, r.cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for site := range jobs {
				obs, err := r.weather.Current(ctx, site.ID, geodesy.Point{Lat: site.Lat, Lon: site.Lon})
				select {
				case results <- siteResult{site: site, obs: obs, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, site := range sites {
			select {
			case jobs <- site:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		samples []overlay.Sample
		cells   []weather.Cell
		failed  int
	)
	for res := range results {
		if res.err != nil {
			failed++
			r.logger.Warn("site fetch failed",
				"component", "refresh",
				"site", res.site.ID,
				"error", res.err,
			)
			continue
		}
		samples = append(samples, overlay.Sample{
			ID:          res.site.ID,
			Name:        res.site.Name,
			Coords:      geodesy.Point{Lat: res.site.Lat, Lon: res.site.Lon},
			Temperature: res.obs.Temperature,
		})
		cells = append(cells, weather.Classify(res.obs))
	}

	duration := time.Since(start)
	if len(samples) == 0 {
		r.logger.Error("refresh cycle failed, every site fetch failed",
			"component", "refresh",
			"sites", len(sites),
			"duration_ms", duration.Milliseconds(),
		)
		metrics.ObserveRefreshCycle(duration, 0, true)
		return
	}

	heatmap := overlay.BuildHeatmap(samples)
	snap := &Snapshot{
		GeneratedAt: start.UTC(),
		SitesOK:     len(samples),
		Cells:       cells,
		Heatmap:     heatmap,
		Routes:      overlay.BuildRoutes(heatmap),
		Timeline:    overlay.BuildTimeline(start, cells),
		Fence:       overlay.BuildGeofence(siteBounds(samples)),
	}
	r.snap.Store(snap)
	metrics.ObserveRefreshCycle(duration, len(samples), false)

	r.logger.Info("refresh cycle complete",
		"component", "refresh",
		"sites_ok", len(samples),
		"sites_failed", failed,
		"duration_ms", duration.Milliseconds(),
	)
}

// siteBounds spans the sampled sites with padding, clamped to valid
// degree ranges.
func siteBounds(samples []overlay.Sample) overlay.GeofenceBox {
	box := overlay.GeofenceBox{
		South: samples[0].Coords.Lat, North: samples[0].Coords.Lat,
		West: samples[0].Coords.Lon, East: samples[0].Coords.Lon,
	}
	for _, s := range samples[1:] {
		if s.Coords.Lat < box.South {
			box.South = s.Coords.Lat
		}
		if s.Coords.Lat > box.North {
			box.North = s.Coords.Lat
		}
		if s.Coords.Lon < box.West {
			box.West = s.Coords.Lon
		}
		if s.Coords.Lon > box.East {
			box.East = s.Coords.Lon
		}
	}
	box.South = clampDeg(box.South-fencePadDeg, -90, 90)
	box.North = clampDeg(box.North+fencePadDeg, -90, 90)
	box.West = clampDeg(box.West-fencePadDeg, -180, 180)
	box.East = clampDeg(box.East+fencePadDeg, -180, 180)
	return box
}

func clampDeg(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
