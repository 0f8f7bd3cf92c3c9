package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/alerts"
	"github.com/nmapgithub/HELLSPHERE/internal/api"
	"github.com/nmapgithub/HELLSPHERE/internal/auth"
	"github.com/nmapgithub/HELLSPHERE/internal/config"
	"github.com/nmapgithub/HELLSPHERE/internal/geocode"
	"github.com/nmapgithub/HELLSPHERE/internal/imagery"
	"github.com/nmapgithub/HELLSPHERE/internal/intel"
	"github.com/nmapgithub/HELLSPHERE/internal/metrics"
	"github.com/nmapgithub/HELLSPHERE/internal/overpass"
	"github.com/nmapgithub/HELLSPHERE/internal/stream"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
	"github.com/nmapgithub/HELLSPHERE/internal/weather"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	addr := os.Getenv("HELLSPHERE_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	tleCfg := loadTLEConfig(logger)
	store := tle.NewStore()
	tleCache := tle.NewCache(tleCfg.CacheDir, tleCfg.MaxFiles)

	// Attempt to load cached TLE data on startup.
	if data, ts, err := tleCache.LoadLatest(); err != nil {
		logger.Info("no TLE cache found, starting without TLE data", "error", err)
	} else {
		records := tle.Parse(string(data), tleCfg.MaxRecords, logger)
		if len(records) > 0 {
			store.Replace(&tle.Dataset{
				Source:    "cache",
				FetchedAt: ts,
				Records:   records,
			})
			metrics.SetTLEDatasetCount(len(records))
			logger.Info("loaded TLE data from cache", "count", len(records), "cached_at", ts.Format(time.RFC3339))
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if tleCfg.EnableFetch {
		fetcher := tle.NewFetcher(tleCfg.SourceURL, tleCfg.ExtraSourceURLs, logger)
		go fetchLoop(ctx, fetcher, store, tleCache, tleCfg, logger)
	}

	sites, siteWatcher := loadSites(logger)
	if siteWatcher != nil {
		go siteWatcher.Watch(ctx)
	}

	weatherClient := weather.NewClient(os.Getenv("HELLSPHERE_WEATHER_URL"), logger)
	alertClient := alerts.NewClient(os.Getenv("HELLSPHERE_QUAKE_FEED_URL"), logger)
	geoClient := geocode.NewClient(geocode.Config{
		ForwardURL:   os.Getenv("HELLSPHERE_GEOCODE_URL"),
		ReverseURL:   os.Getenv("HELLSPHERE_REVERSE_GEOCODE_URL"),
		ElevationURL: os.Getenv("HELLSPHERE_ELEVATION_URL"),
	}, logger)

	searchParams, alertRadiusKm := loadSearchConfig(logger)
	svc := intel.NewService(store, weatherClient, alertClient, geoClient, searchParams, alertRadiusKm, logger)

	refresher := intel.NewRefresher(sites, weatherClient, loadRefreshConfig(logger), logger)
	go refresher.Run(ctx)

	streamHandler := stream.NewHandler(refresher, store, loadStreamConfig(logger), logger)

	imagerySrv := imagery.NewServer(imagery.Config{
		Addr: os.Getenv("HELLSPHERE_IMAGERY_ADDR"),
		Dir:  os.Getenv("HELLSPHERE_IMAGERY_DIR"),
	}, logger)
	go func() {
		if err := imagerySrv.Start(); err != nil {
			logger.Error("imagery server error", "error", err)
		}
	}()

	srv := api.NewServer(addr, logger, authCfg, svc, refresher, store, geoClient, streamHandler)

	// Background goroutine to update TLE dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age, ok := store.Age(); ok {
					metrics.SetTLEDatasetAge(age.Seconds())
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "tle_fetch_enabled", tleCfg.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := imagerySrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("imagery server shutdown error", "error", err)
	}
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("HELLSPHERE_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fetchLoop fetches TLE data on startup, then at the configured interval.
func fetchLoop(ctx context.Context, fetcher *tle.Fetcher, store *tle.Store, cache *tle.Cache, cfg tleConfig, logger *slog.Logger) {
	fetchOnce := func() {
		data, err := fetcher.Fetch(ctx)
		if err != nil {
			logger.Warn("TLE fetch failed", "error", err)
			return
		}
		records := tle.Parse(string(data), cfg.MaxRecords, logger)
		if len(records) == 0 {
			logger.Warn("TLE fetch returned no parseable records")
			return
		}
		now := time.Now()
		store.Replace(&tle.Dataset{
			Source:    fetcher.SourceURL(),
			FetchedAt: now,
			Records:   records,
		})
		metrics.SetTLEDatasetCount(len(records))
		if err := cache.Write(data, now); err != nil {
			logger.Warn("TLE cache write failed", "error", err)
		}
		logger.Info("TLE dataset refreshed", "count", len(records))
	}

	fetchOnce()
	ticker := time.NewTicker(cfg.RefetchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fetchOnce()
		case <-ctx.Done():
			return
		}
	}
}

// loadSites returns a live site-list view. With HELLSPHERE_SITES_FILE set
// the list hot-reloads on file changes; otherwise the built-in defaults
// apply.
func loadSites(logger *slog.Logger) (func() []config.Site, *config.SiteWatcher) {
	path := os.Getenv("HELLSPHERE_SITES_FILE")
	if path == "" {
		logger.Info("using built-in sample sites", "count", len(config.DefaultSites()))
		return config.DefaultSites, nil
	}

	watcher, err := config.NewSiteWatcher(path, logger)
	if err != nil {
		logger.Error("invalid sites file", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded sites file", "path", path, "count", len(watcher.Sites()))
	return watcher.Sites, watcher
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("HELLSPHERE_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("HELLSPHERE_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("HELLSPHERE_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("HELLSPHERE_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

type tleConfig struct {
	EnableFetch     bool
	SourceURL       string
	ExtraSourceURLs []string
	CacheDir        string
	MaxFiles        int
	MaxRecords      int
	RefetchInterval time.Duration
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		EnableFetch:     true,
		CacheDir:        "/tmp/hellsphere/tle",
		MaxFiles:        5,
		RefetchInterval: 6 * time.Hour,
		ExtraSourceURLs: []string{
			// ISS (NORAD 25544) — well-documented reference satellite for validation.
			"https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=tle",
		},
	}

	if v := os.Getenv("HELLSPHERE_ENABLE_TLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid HELLSPHERE_ENABLE_TLE_FETCH value, defaulting to false", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v := os.Getenv("HELLSPHERE_TLE_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}

	if v := os.Getenv("HELLSPHERE_TLE_EXTRA_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		cfg.ExtraSourceURLs = urls
	}

	if v := os.Getenv("HELLSPHERE_TLE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("HELLSPHERE_TLE_MAX_RECORDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid HELLSPHERE_TLE_MAX_RECORDS value, using unlimited", "value", v)
		} else {
			cfg.MaxRecords = n
		}
	}

	if v := os.Getenv("HELLSPHERE_TLE_REFETCH_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 60 {
			logger.Warn("invalid HELLSPHERE_TLE_REFETCH_SECONDS value, using default", "value", v, "default", 21600)
		} else {
			cfg.RefetchInterval = time.Duration(n) * time.Second
		}
	}

	logger.Info("TLE config",
		"source_url", cfg.SourceURL,
		"extra_urls", cfg.ExtraSourceURLs,
		"cache_dir", cfg.CacheDir,
	)

	return cfg
}

func loadSearchConfig(logger *slog.Logger) (overpass.Params, float64) {
	params := overpass.Params{}
	alertRadiusKm := alerts.DefaultRadiusKm

	if v := os.Getenv("HELLSPHERE_SEARCH_LOOKAHEAD_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 60 {
			logger.Warn("invalid HELLSPHERE_SEARCH_LOOKAHEAD_SECONDS value, using default", "value", v, "default", 7200)
		} else {
			params.Lookahead = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("HELLSPHERE_SEARCH_STEP_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HELLSPHERE_SEARCH_STEP_SECONDS value, using default", "value", v, "default", 60)
		} else {
			params.Step = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("HELLSPHERE_SEARCH_RADIUS_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid HELLSPHERE_SEARCH_RADIUS_KM value, using default", "value", v, "default", 2500)
		} else {
			params.RelevanceRadiusKm = f
		}
	}

	if v := os.Getenv("HELLSPHERE_SEARCH_MAX_PASSES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HELLSPHERE_SEARCH_MAX_PASSES value, using default", "value", v, "default", 5)
		} else {
			params.MaxPasses = n
		}
	}

	if v := os.Getenv("HELLSPHERE_ALERT_RADIUS_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid HELLSPHERE_ALERT_RADIUS_KM value, using default", "value", v, "default", alerts.DefaultRadiusKm)
		} else {
			alertRadiusKm = f
		}
	}

	logger.Info("search config",
		"lookahead_seconds", params.Lookahead.Seconds(),
		"step_seconds", params.Step.Seconds(),
		"relevance_radius_km", params.RelevanceRadiusKm,
		"max_passes", params.MaxPasses,
		"alert_radius_km", alertRadiusKm,
	)

	return params, alertRadiusKm
}

func loadRefreshConfig(logger *slog.Logger) intel.RefreshConfig {
	cfg := intel.RefreshConfig{
		Interval: 10 * time.Minute,
		Workers:  4,
	}

	if v := os.Getenv("HELLSPHERE_REFRESH_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 10 {
			logger.Warn("invalid HELLSPHERE_REFRESH_INTERVAL_SECONDS value, using default", "value", v, "default", 600)
		} else {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("HELLSPHERE_REFRESH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HELLSPHERE_REFRESH_WORKERS value, using default", "value", v, "default", runtime.NumCPU())
		} else {
			cfg.Workers = n
		}
	}

	logger.Info("refresh config",
		"interval_seconds", cfg.Interval.Seconds(),
		"workers", cfg.Workers,
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		PollInterval:       5 * time.Second,
		KeepaliveInterval:  30 * time.Second,
	}

	if v := os.Getenv("HELLSPHERE_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HELLSPHERE_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("HELLSPHERE_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid HELLSPHERE_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("HELLSPHERE_TRUST_PROXY"); v != "" {
		trusted, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid HELLSPHERE_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trusted
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)

	return cfg
}
