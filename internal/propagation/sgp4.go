// Package propagation wraps the SGP4 perturbation model and exposes geodetic
// subpoints for a satellite at arbitrary times.
//
// SGP4 library: github.com/joshuaferrara/go-satellite — pure Go, community
// standard, explicit TEME output. Propagate() takes the Satellite by value so
// SGP4 error codes are not visible to the caller; failures are detected by
// checking the output for NaN/Inf and implausible position magnitudes.
package propagation

import (
	"fmt"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/nmapgithub/HELLSPHERE/internal/tle"
	"github.com/nmapgithub/HELLSPHERE/internal/transform"
)

// Orbit is an initialized SGP4 model for a single satellite.
type Orbit struct {
	sat       satellite.Satellite
	catalogID int
}

// NewOrbit initializes the SGP4 model from a TLE record.
//
// TLE lines are pre-validated because go-satellite calls log.Fatal on
// malformed input, which would kill the process.
func NewOrbit(rec tle.Record) (*Orbit, error) {
	catalogID := rec.CatalogID()
	if err := validateLines(rec.Line1, rec.Line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for catalog %d: %w", catalogID, err)
	}

	sat := satellite.TLEToSat(rec.Line1, rec.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for catalog %d: code=%d %s", catalogID, sat.Error, sat.ErrorStr)
	}
	return &Orbit{sat: sat, catalogID: catalogID}, nil
}

// validateLines performs basic format validation on TLE lines.
func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// CatalogID returns the NORAD catalog number of this orbit.
func (o *Orbit) CatalogID() int {
	return o.catalogID
}

// propagate computes the TEME position (km) at the given UTC components.
func (o *Orbit) propagate(year, month, day, hour, min, sec int) (transform.PositionTEME, error) {
	pos, _ := satellite.Propagate(o.sat, year, month, day, hour, min, sec)

	if !transform.ValidOrbit(pos.X, pos.Y, pos.Z) {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for catalog %d: implausible position (%.1f, %.1f, %.1f) km",
			o.catalogID, pos.X, pos.Y, pos.Z)
	}

	return transform.PositionTEME{X: pos.X, Y: pos.Y, Z: pos.Z}, nil
}
