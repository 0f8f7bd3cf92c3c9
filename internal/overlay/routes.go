package overlay

import (
	"fmt"
	"sort"

	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
)

const (
	// maxRouteNodes caps how many of the hottest points participate in arcs.
	maxRouteNodes = 6
	// routeSkip is the fixed index offset between paired nodes.
	routeSkip = 2
	// routeLift scales how far an arc midpoint rises off the unit sphere.
	routeLift = 0.35
)

// BuildRoutes links the hottest heatmap points into arcs. Points are
// ordered by descending intensity, the top six kept, and node i connects
// to node (i+2) mod n so the arcs braid rather than chain (with only two
// nodes they simply link). Magnitude is
// the pair's average intensity and the midpoint is lifted off the unit
// sphere in proportion to it.
func BuildRoutes(points []HeatmapPoint) []RouteArc {
	if len(points) < 2 {
		return nil
	}

	ranked := make([]HeatmapPoint, len(points))
	copy(ranked, points)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Intensity > ranked[j].Intensity
	})
	if len(ranked) > maxRouteNodes {
		ranked = ranked[:maxRouteNodes]
	}

	n := len(ranked)
	skip := routeSkip % n
	if skip == 0 {
		skip = 1
	}
	arcs := make([]RouteArc, 0, n)
	for i := 0; i < n; i++ {
		from := ranked[i]
		to := ranked[(i+skip)%n]
		mag := (from.Intensity + to.Intensity) / 2

		mid := midpoint(from.Coords, to.Coords)
		lifted := geodesy.ProjectToSphere(mid.Lat, mid.Lon, 1+routeLift*mag)

		arcs = append(arcs, RouteArc{
			ID:          fmt.Sprintf("route-%d", i),
			From:        from.Coords,
			To:          to.Coords,
			Midpoint:    lifted,
			Magnitude:   mag,
			Multipliers: channelRamp(mag),
		})
	}
	return arcs
}

func midpoint(a, b geodesy.Point) geodesy.Point {
	pts := geodesy.InterpolateArc(a, b, 1)
	return pts[0]
}
