package transform

import (
	"math"
	"time"
)

// WGS-84 ellipsoid parameters (km).
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// PositionTEME is a satellite position in the TEME inertial frame, km.
type PositionTEME struct {
	X, Y, Z float64
}

// PositionECEF is a satellite position in the Earth-fixed frame, km.
type PositionECEF struct {
	X, Y, Z float64
}

// Subpoint is the geodetic point directly beneath a satellite.
type Subpoint struct {
	LatDeg, LonDeg float64
	AltKm          float64
}

// TEMEToECEF rotates a TEME position into the Earth-fixed frame by the
// sidereal angle at time t.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST rotates TEME into ECEF using a precomputed GMST angle
// (radians). Precompute once when converting many positions at the same
// instant: r_ECEF = R3(θ) · r_TEME.
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	return PositionECEF{
		X: teme.X*cosG + teme.Y*sinG,
		Y: -teme.X*sinG + teme.Y*cosG,
		Z: teme.Z,
	}
}

// ECEFToSubpoint converts an Earth-fixed position (km) to the geodetic point
// beneath it, using the iterative Bowring method. Converges in a handful of
// iterations for Earth orbits.
func ECEFToSubpoint(pos PositionECEF) Subpoint {
	lon := math.Atan2(pos.Y, pos.X)
	p := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)

	lat := math.Atan2(pos.Z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(pos.Z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(pos.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return Subpoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltKm:  alt,
	}
}

// ValidOrbit reports whether a position vector (km, any Earth-centered
// frame) is physically plausible for an Earth-orbiting object: finite, and
// between LEO floor and beyond-GEO ceiling. SGP4 signals divergence through
// garbage output rather than errors, so propagation gates every sample on
// this check.
func ValidOrbit(x, y, z float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) {
		return false
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsInf(z, 0) {
		return false
	}
	mag := math.Sqrt(x*x + y*y + z*z)
	return mag >= 6200.0 && mag <= 50000.0
}
