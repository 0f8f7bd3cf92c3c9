package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/overpass"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
)

func main() {
	var (
		tlePath   = flag.String("tle", "", "path to a TLE file (required)")
		lat       = flag.Float64("lat", 39.7392, "ground latitude in degrees")
		lon       = flag.Float64("lon", -104.9903, "ground longitude in degrees")
		lookahead = flag.Duration("lookahead", 2*time.Hour, "search window")
		step      = flag.Duration("step", time.Minute, "sampling step")
		radius    = flag.Float64("radius", 2500, "relevance radius in km")
		maxPasses = flag.Int("max", 5, "max passes to report")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *tlePath == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -tle <file> [-lat n] [-lon n]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*tlePath)
	if err != nil {
		fmt.Println("ERROR reading TLE file:", err)
		os.Exit(1)
	}

	records := tle.Parse(string(data), 0, logger)
	fmt.Printf("Loaded %d TLE records\n", len(records))
	if len(records) == 0 {
		os.Exit(1)
	}
	fmt.Printf("First record: %s (catalog %d)\n", records[0].Name, records[0].CatalogID())

	ground := geodesy.Point{Lat: *lat, Lon: *lon}
	now := time.Now().UTC()
	fmt.Printf("Search start: %v ground: %.4f,%.4f\n", now.Format(time.RFC3339), ground.Lat, ground.Lon)

	params := overpass.Params{
		Lookahead:         *lookahead,
		Step:              *step,
		RelevanceRadiusKm: *radius,
		MaxPasses:         *maxPasses,
	}

	passes := overpass.Search(context.Background(), records, ground, now, params, logger)
	if len(passes) == 0 {
		fmt.Println("No passes within the relevance radius")
		return
	}

	for i, p := range passes {
		fmt.Printf("  pass %d: %s (catalog %d) dist=%.0fkm alt=%.0fkm at %s\n",
			i, p.Name, p.CatalogID, p.DistanceKm, p.AltitudeKm, p.PassTime.Format(time.RFC3339))
	}
	fmt.Printf("\nTotal passes found: %d\n", len(passes))
}
