package geocode

import (
	"fmt"
	"math"

	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
)

// ImageryRef is a reference to a basemap tile covering a coordinate. Pure URL
// construction; nothing is fetched.
type ImageryRef struct {
	Layer string `json:"layer"`
	URL   string `json:"url"`
	Zoom  int    `json:"zoom"`
}

const imageryZoom = 10

// ImageryRefs returns tile references for the coordinate at the fixed overlay
// zoom level.
func ImageryRefs(p geodesy.Point) []ImageryRef {
	x, y := tileXY(p, imageryZoom)
	return []ImageryRef{
		{
			Layer: "satellite",
			URL:   fmt.Sprintf("https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/%d/%d/%d", imageryZoom, y, x),
			Zoom:  imageryZoom,
		},
		{
			Layer: "terrain",
			URL:   fmt.Sprintf("https://tile.opentopomap.org/%d/%d/%d.png", imageryZoom, x, y),
			Zoom:  imageryZoom,
		},
	}
}

// tileXY converts a coordinate to slippy-map tile indices at zoom z.
func tileXY(p geodesy.Point, z int) (int, int) {
	n := float64(int(1) << z)
	latRad := p.Lat * math.Pi / 180.0

	x := int(n * (p.Lon + 180.0) / 360.0)
	y := int(n * (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0)

	max := (1 << z) - 1
	if x < 0 {
		x = 0
	}
	if x > max {
		x = max
	}
	if y < 0 {
		y = 0
	}
	if y > max {
		y = max
	}
	return x, y
}
