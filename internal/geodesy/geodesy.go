// Package geodesy provides spherical-Earth geometry helpers shared by the
// overpass search, the alert filter, and the overlay generators.
//
// All helpers assume a sphere of mean radius 6371.0088 km. That is accurate to
// ~0.5% against the WGS-84 ellipsoid, which is fine for ranking passes and
// placing overlay geometry; it is not a survey-grade model.
package geodesy

import "math"

// EarthRadiusKm is the IUGG mean Earth radius.
const EarthRadiusKm = 6371.0088

// Point is a geodetic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Vec3 is a Cartesian point on (or above) the unit sphere.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

const degToRad = math.Pi / 180.0

// DistanceKm returns the great-circle distance between p1 and p2 in km
// using the haversine formula. Symmetric; zero for identical points.
func DistanceKm(p1, p2 Point) float64 {
	lat1 := p1.Lat * degToRad
	lat2 := p2.Lat * degToRad
	dLat := (p2.Lat - p1.Lat) * degToRad
	dLon := (p2.Lon - p1.Lon) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BearingDegrees returns the initial forward azimuth from one point to
// another, in [0, 360). 0 = North, measured clockwise.
func BearingDegrees(from, to Point) float64 {
	lat1 := from.Lat * degToRad
	lat2 := to.Lat * degToRad
	dLon := (to.Lon - from.Lon) * degToRad

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) / degToRad
	deg = math.Mod(deg+360, 360)
	return deg
}

// ProjectToSphere converts a geodetic coordinate to a Cartesian point at the
// given radius. Used uniformly for all overlay geometry so the rendering layer
// sees one consistent frame.
func ProjectToSphere(lat, lon, radius float64) Vec3 {
	latR := lat * degToRad
	lonR := lon * degToRad
	cosLat := math.Cos(latR)
	return Vec3{
		X: radius * cosLat * math.Cos(lonR),
		Y: radius * cosLat * math.Sin(lonR),
		Z: radius * math.Sin(latR),
	}
}

// SphereToGeo inverts ProjectToSphere, recovering latitude and longitude in
// degrees. For inputs produced by ProjectToSphere the round trip is exact to
// floating tolerance.
func SphereToGeo(v Vec3) Point {
	r := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if r == 0 {
		return Point{}
	}
	return Point{
		Lat: math.Asin(v.Z/r) / degToRad,
		Lon: math.Atan2(v.Y, v.X) / degToRad,
	}
}

// InterpolateArc returns n intermediate points between p1 and p2, linearly
// interpolated in lat/lon space. This is a deliberate approximation, not a
// geodesic slerp: it is inexact near the antimeridian and for long spans, but
// the overlay arcs it feeds are short enough that the error is invisible.
func InterpolateArc(p1, p2 Point, n int) []Point {
	if n <= 0 {
		return nil
	}
	pts := make([]Point, 0, n)
	for i := 1; i <= n; i++ {
		f := float64(i) / float64(n+1)
		pts = append(pts, Point{
			Lat: p1.Lat + (p2.Lat-p1.Lat)*f,
			Lon: p1.Lon + (p2.Lon-p1.Lon)*f,
		})
	}
	return pts
}

// Normalize maps v into [0,1] relative to [min,max]. A degenerate range
// (min == max) returns 0 so callers never see NaN.
func Normalize(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	f := (v - min) / (max - min)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
