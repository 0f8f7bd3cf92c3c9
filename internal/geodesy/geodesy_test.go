package geodesy

import (
	"math"
	"testing"
)

func TestDistanceIdentity(t *testing.T) {
	pts := []Point{
		{0, 0},
		{35.0, 139.0},
		{-89.9, 179.9},
		{40.7128, -74.006},
	}
	for _, p := range pts {
		if d := DistanceKm(p, p); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{35.6762, 139.6503} // Tokyo
	b := Point{51.5074, -0.1278}  // London
	d1 := DistanceKm(a, b)
	d2 := DistanceKm(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
	// Sanity: Tokyo-London is roughly 9560 km.
	if d1 < 9400 || d1 > 9700 {
		t.Errorf("Tokyo-London distance %v km out of expected range", d1)
	}
}

func TestDistanceAntipodal(t *testing.T) {
	// (0,0) to (0,180) is half the circumference: pi * R.
	got := DistanceKm(Point{0, 0}, Point{0, 180})
	want := math.Pi * EarthRadiusKm
	if math.Abs(got-want) > 1.0 {
		t.Errorf("antipodal distance = %v, want %v (±1 km)", got, want)
	}
}

func TestBearingCardinal(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
		want     float64
	}{
		{"due north", Point{0, 0}, Point{10, 0}, 0},
		{"due east", Point{0, 0}, Point{0, 10}, 90},
		{"due south", Point{10, 0}, Point{0, 0}, 180},
		{"due west", Point{0, 10}, Point{0, 0}, 270},
	}
	for _, tt := range tests {
		got := BearingDegrees(tt.from, tt.to)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: bearing = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBearingRange(t *testing.T) {
	pts := []Point{{12, 34}, {-45, -170}, {89, 10}, {-89, 170}}
	for _, from := range pts {
		for _, to := range pts {
			if from == to {
				continue
			}
			b := BearingDegrees(from, to)
			if b < 0 || b >= 360 {
				t.Errorf("bearing %v -> %v = %v out of [0,360)", from, to, b)
			}
		}
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	for lat := -89.0; lat <= 89.0; lat += 8.9 {
		for lon := -179.0; lon <= 179.0; lon += 17.9 {
			v := ProjectToSphere(lat, lon, 1.0)
			p := SphereToGeo(v)
			if math.Abs(p.Lat-lat) > 1e-6 || math.Abs(p.Lon-lon) > 1e-6 {
				t.Errorf("round trip (%v,%v) -> %v, want original within 1e-6", lat, lon, p)
			}
		}
	}
}

func TestProjectionUnitMagnitude(t *testing.T) {
	v := ProjectToSphere(35, 139, 1.0)
	mag := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if math.Abs(mag-1.0) > 1e-12 {
		t.Errorf("unit projection magnitude = %v, want 1", mag)
	}
}

func TestInterpolateArc(t *testing.T) {
	p1 := Point{0, 0}
	p2 := Point{10, 20}
	pts := InterpolateArc(p1, p2, 4)
	if len(pts) != 4 {
		t.Fatalf("got %d points, want 4", len(pts))
	}
	// Points are strictly between the endpoints and evenly spaced.
	for i, p := range pts {
		f := float64(i+1) / 5.0
		if math.Abs(p.Lat-10*f) > 1e-9 || math.Abs(p.Lon-20*f) > 1e-9 {
			t.Errorf("point %d = %v, want (%v, %v)", i, p, 10*f, 20*f)
		}
	}

	if got := InterpolateArc(p1, p2, 0); got != nil {
		t.Errorf("n=0 should return nil, got %v", got)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	for _, v := range []float64{-5, 0, 3, 1e9} {
		if got := Normalize(v, 7, 7); got != 0 {
			t.Errorf("Normalize(%v, 7, 7) = %v, want 0", v, got)
		}
	}
	if got := Normalize(5, 0, 10); got != 0.5 {
		t.Errorf("Normalize(5, 0, 10) = %v, want 0.5", got)
	}
	if got := Normalize(-1, 0, 10); got != 0 {
		t.Errorf("Normalize below range = %v, want clamp to 0", got)
	}
	if got := Normalize(11, 0, 10); got != 1 {
		t.Errorf("Normalize above range = %v, want clamp to 1", got)
	}
}
