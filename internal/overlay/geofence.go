package overlay

import "github.com/nmapgithub/HELLSPHERE/internal/geodesy"

const (
	// geofenceEdgePoints is how many vertices each edge polyline carries.
	geofenceEdgePoints = 24
	// geofenceElevation lifts the fence slightly off the base sphere so it
	// renders above surface overlays.
	geofenceElevation = 0.015
)

// BuildGeofence traces the four edges of a bounding box as independent
// polylines on the unit sphere. Edges are returned south, north, west,
// east; each has a fixed vertex count so consumers can index them
// without measuring.
func BuildGeofence(box GeofenceBox) [][]geodesy.Vec3 {
	radius := 1 + geofenceElevation
	edge := func(a, b geodesy.Point) []geodesy.Vec3 {
		line := make([]geodesy.Vec3, 0, geofenceEdgePoints)
		for i := 0; i < geofenceEdgePoints; i++ {
			f := float64(i) / float64(geofenceEdgePoints-1)
			lat := a.Lat + (b.Lat-a.Lat)*f
			lon := a.Lon + (b.Lon-a.Lon)*f
			line = append(line, geodesy.ProjectToSphere(lat, lon, radius))
		}
		return line
	}

	sw := geodesy.Point{Lat: box.South, Lon: box.West}
	se := geodesy.Point{Lat: box.South, Lon: box.East}
	nw := geodesy.Point{Lat: box.North, Lon: box.West}
	ne := geodesy.Point{Lat: box.North, Lon: box.East}

	return [][]geodesy.Vec3{
		edge(sw, se),
		edge(nw, ne),
		edge(sw, nw),
		edge(se, ne),
	}
}
