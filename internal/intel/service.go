package intel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmapgithub/HELLSPHERE/internal/alerts"
	"github.com/nmapgithub/HELLSPHERE/internal/geocode"
	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/metrics"
	"github.com/nmapgithub/HELLSPHERE/internal/overpass"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
	"github.com/nmapgithub/HELLSPHERE/internal/weather"
)

// Service fans one coordinate out to all intel categories concurrently.
type Service struct {
	store         *tle.Store
	weather       *weather.Client
	alerts        *alerts.Client
	geocode       *geocode.Client
	searchParams  overpass.Params
	alertRadiusKm float64
	logger        *slog.Logger

	mu       sync.Mutex
	inflight *request
	point    geodesy.Point
}

// request identifies one in-flight report so finish can tell whether it is
// still the registered latest.
type request struct {
	cancel context.CancelFunc
}

// NewService wires the category clients together.
func NewService(store *tle.Store, wc *weather.Client, ac *alerts.Client, gc *geocode.Client, searchParams overpass.Params, alertRadiusKm float64, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		weather:       wc,
		alerts:        ac,
		geocode:       gc,
		searchParams:  searchParams,
		alertRadiusKm: alertRadiusKm,
		logger:        logger,
	}
}

// begin derives the working context for a report and registers it as the
// latest. A newer request for a different coordinate cancels whatever was
// in flight; repeat requests for the same coordinate coexist.
func (s *Service) begin(parent context.Context, p geodesy.Point) (context.Context, *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != nil && s.point != p {
		s.inflight.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	req := &request{cancel: cancel}
	s.inflight = req
	s.point = p
	return ctx, req
}

func (s *Service) finish(req *request) {
	req.cancel()
	s.mu.Lock()
	if s.inflight == req {
		s.inflight = nil
	}
	s.mu.Unlock()
}

// Report gathers all categories for the coordinate. Categories run
// concurrently and degrade independently; the report always returns, even
// if every upstream is down.
func (s *Service) Report(ctx context.Context, ground geodesy.Point) *Report {
	start := time.Now()
	ctx, req := s.begin(ctx, ground)
	defer s.finish(req)

	rep := &Report{
		RequestID:   uuid.NewString(),
		Coords:      ground,
		GeneratedAt: start.UTC(),
		Passes:      []overpass.Pass{},
		Alerts:      []alerts.Info{},
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		degraded []string
	)
	fail := func(category string) {
		mu.Lock()
		degraded = append(degraded, category)
		mu.Unlock()
		metrics.IncIntelCategory(category, "degraded")
	}
	ok := func(category string) {
		metrics.IncIntelCategory(category, "ok")
	}

	wg.Add(4)

	go func() {
		defer wg.Done()
		ds := s.store.Current()
		if ds == nil {
			fail("passes")
			return
		}
		rep.Passes = overpass.Search(ctx, ds.Records, ground, start, s.searchParams, s.logger)
		ok("passes")
	}()

	go func() {
		defer wg.Done()
		obs, err := s.weather.Current(ctx, "request", ground)
		if err != nil {
			s.logger.Warn("weather degraded", "component", "intel", "error", err)
			fail("weather")
			return
		}
		cell := weather.Classify(obs)
		rep.Observation = &obs
		rep.Weather = &cell
		ok("weather")
	}()

	go func() {
		defer wg.Done()
		events, err := s.alerts.Recent(ctx)
		if err != nil {
			s.logger.Warn("alerts degraded", "component", "intel", "error", err)
			fail("alerts")
			return
		}
		rep.Alerts = alerts.Filter(events, ground, s.alertRadiusKm)
		ok("alerts")
	}()

	go func() {
		defer wg.Done()
		// Imagery refs are pure construction and cannot fail.
		rep.Imagery = geocode.ImageryRefs(ground)

		place, err := s.geocode.Reverse(ctx, ground)
		if err != nil {
			s.logger.Warn("geocode degraded", "component", "intel", "error", err)
			fail("geocode")
			return
		}
		rep.Place = &place

		if elev, err := s.geocode.Elevation(ctx, ground); err == nil {
			rep.ElevationM = elev
		} else {
			s.logger.Debug("elevation lookup failed", "component", "intel", "error", err)
		}
		ok("geocode")
	}()

	wg.Wait()
	rep.Degraded = degraded

	s.logger.Info("intel report",
		"component", "intel",
		"request_id", rep.RequestID,
		"lat", ground.Lat,
		"lon", ground.Lon,
		"passes", len(rep.Passes),
		"alerts", len(rep.Alerts),
		"degraded", degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rep
}
