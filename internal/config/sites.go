// Package config loads the sample-site list the refresh cycle sweeps.
// Sites live in a YAML file so operators can tune coverage without a
// rebuild; the watcher hot-reloads edits.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Site is one ground location sampled by the refresh cycle.
type Site struct {
	ID   string  `yaml:"id" validate:"required"`
	Name string  `yaml:"name" validate:"required"`
	Lat  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

type siteFile struct {
	Sites []Site `yaml:"sites" validate:"min=1,dive"`
}

var validate = validator.New()

// LoadSites reads and validates the site list at path.
func LoadSites(path string) ([]Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var f siteFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("validate sites file: %w", err)
	}

	seen := make(map[string]bool, len(f.Sites))
	for _, s := range f.Sites {
		if seen[s.ID] {
			return nil, fmt.Errorf("validate sites file: duplicate site id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return f.Sites, nil
}

// DefaultSites is the built-in site list used when no file is configured.
func DefaultSites() []Site {
	return []Site{
		{ID: "tokyo", Name: "Tokyo", Lat: 35.6762, Lon: 139.6503},
		{ID: "london", Name: "London", Lat: 51.5074, Lon: -0.1278},
		{ID: "nyc", Name: "New York", Lat: 40.7128, Lon: -74.0060},
		{ID: "sydney", Name: "Sydney", Lat: -33.8688, Lon: 151.2093},
		{ID: "saopaulo", Name: "São Paulo", Lat: -23.5505, Lon: -46.6333},
		{ID: "nairobi", Name: "Nairobi", Lat: -1.2921, Lon: 36.8219},
		{ID: "reykjavik", Name: "Reykjavík", Lat: 64.1466, Lon: -21.9426},
		{ID: "mumbai", Name: "Mumbai", Lat: 19.0760, Lon: 72.8777},
	}
}
