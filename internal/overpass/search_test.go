package overpass

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/geodesy"
	"github.com/nmapgithub/HELLSPHERE/internal/tle"
	"github.com/nmapgithub/HELLSPHERE/internal/transform"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// syntheticTrack runs a ground track that approaches target linearly, closest
// at closestAt with distance closestKm, receding on both sides.
type syntheticTrack struct {
	start     time.Time
	target    geodesy.Point
	closestAt time.Duration
	closestKm float64
	failAt    map[time.Duration]bool
}

func (s *syntheticTrack) SubpointAt(t time.Time) (transform.Subpoint, error) {
	offset := t.Sub(s.start)
	if s.failAt[offset] {
		return transform.Subpoint{}, errors.New("propagation failed")
	}

	// Distance from target grows 100 km per minute away from closestAt.
	awayMin := math.Abs((offset - s.closestAt).Minutes())
	distKm := s.closestKm + awayMin*100

	// Offset due north of the target by the desired distance.
	dLat := distKm / (geodesy.EarthRadiusKm * math.Pi / 180.0)
	return transform.Subpoint{
		LatDeg: s.target.Lat + dLat,
		LonDeg: s.target.Lon,
		AltKm:  420,
	}, nil
}

var tokyo = geodesy.Point{Lat: 35.0, Lon: 139.0}

func TestClosestApproachFindsMinimum(t *testing.T) {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	track := &syntheticTrack{
		start:     start,
		target:    tokyo,
		closestAt: 42 * time.Minute,
		closestKm: 10,
	}

	params := Params{Lookahead: 120 * time.Minute, Step: 60 * time.Second}
	pass, ok := ClosestApproach(context.Background(), track, "TEST SAT", tokyo, start, params)
	if !ok {
		t.Fatal("expected a pass, got none")
	}

	if math.Abs(pass.DistanceKm-10) > 1.0 {
		t.Errorf("DistanceKm = %v, want ~10 (±1)", pass.DistanceKm)
	}
	wantTime := start.Add(42 * time.Minute)
	if !pass.PassTime.Equal(wantTime) {
		t.Errorf("PassTime = %v, want %v", pass.PassTime, wantTime)
	}
	if pass.Name != "TEST SAT" {
		t.Errorf("Name = %q", pass.Name)
	}
}

func TestClosestApproachBeyondRelevanceRadius(t *testing.T) {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	track := &syntheticTrack{
		start:     start,
		target:    tokyo,
		closestAt: 30 * time.Minute,
		closestKm: 3000, // beyond the 2500 km default
	}

	if _, ok := ClosestApproach(context.Background(), track, "FAR SAT", tokyo, start, Params{}); ok {
		t.Error("pass beyond relevance radius must be discarded")
	}
}

func TestClosestApproachSkipsFailedSamples(t *testing.T) {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	track := &syntheticTrack{
		start:     start,
		target:    tokyo,
		closestAt: 42 * time.Minute,
		closestKm: 10,
		failAt: map[time.Duration]bool{
			41 * time.Minute: true,
			43 * time.Minute: true,
		},
	}

	params := Params{Lookahead: 120 * time.Minute, Step: 60 * time.Second}
	pass, ok := ClosestApproach(context.Background(), track, "FLAKY", tokyo, start, params)
	if !ok {
		t.Fatal("failures at single samples must not drop the record")
	}
	if math.Abs(pass.DistanceKm-10) > 1.0 {
		t.Errorf("DistanceKm = %v, want ~10", pass.DistanceKm)
	}
}

func TestClosestApproachAllSamplesFail(t *testing.T) {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	failAll := map[time.Duration]bool{}
	for o := time.Duration(0); o <= 10*time.Minute; o += time.Minute {
		failAll[o] = true
	}
	track := &syntheticTrack{start: start, target: tokyo, failAt: failAll, closestKm: 1}

	params := Params{Lookahead: 10 * time.Minute, Step: time.Minute}
	if _, ok := ClosestApproach(context.Background(), track, "DEAD", tokyo, start, params); ok {
		t.Error("record with no successful samples must produce no pass")
	}
}

func TestSearchRealISS(t *testing.T) {
	// Real ISS elements; search a full orbital period so the track crosses
	// the relevance radius of a mid-latitude point.
	rec := tle.Record{
		Name:  "ISS (ZARYA)",
		Line1: "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
		Line2: "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058",
	}
	start := time.Date(2025, 2, 14, 5, 0, 0, 0, time.UTC)

	passes := Search(context.Background(), []tle.Record{rec}, tokyo, start, Params{
		Lookahead: 12 * time.Hour,
		Step:      60 * time.Second,
	}, testLogger)

	if len(passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(passes))
	}
	p := passes[0]
	if p.CatalogID != 25544 {
		t.Errorf("CatalogID = %d, want 25544", p.CatalogID)
	}
	if p.DistanceKm < 0 || p.DistanceKm > 2500 {
		t.Errorf("DistanceKm = %v outside relevance radius", p.DistanceKm)
	}
	if p.PassTime.Before(start) || p.PassTime.After(start.Add(12*time.Hour)) {
		t.Errorf("PassTime %v outside search window", p.PassTime)
	}
}

func TestSearchDropsInvalidRecords(t *testing.T) {
	// Garbage records are dropped; search over zero valid records is empty.
	bad := tle.Record{Name: "JUNK", Line1: "1 x", Line2: "2 y"}
	passes := Search(context.Background(), []tle.Record{bad, bad}, tokyo, time.Now(), Params{}, testLogger)
	if len(passes) != 0 {
		t.Fatalf("got %d passes from invalid records, want 0", len(passes))
	}
}

func TestSearchTracksOrdersByDistanceAndTruncates(t *testing.T) {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

	// Seven tracks with distinct minima, in scrambled order. One never comes
	// inside the relevance radius; of the remaining six, only the five
	// closest survive truncation.
	minima := map[string]float64{
		"SAT-300":  300,
		"SAT-50":   50,
		"SAT-900":  900,
		"SAT-FAR":  2600,
		"SAT-120":  120,
		"SAT-700":  700,
		"SAT-40":   40,
	}
	entries := make([]trackEntry, 0, len(minima))
	catalog := 1000
	for name, km := range minima {
		catalog++
		entries = append(entries, trackEntry{
			name:      name,
			catalogID: catalog,
			track: &syntheticTrack{
				start:     start,
				target:    tokyo,
				closestAt: 10 * time.Minute,
				closestKm: km,
			},
		})
	}

	params := Params{Lookahead: 30 * time.Minute, Step: time.Minute}
	passes := searchTracks(context.Background(), entries, tokyo, start, params)

	if len(passes) != 5 {
		t.Fatalf("got %d passes, want 5 after truncation", len(passes))
	}
	wantOrder := []string{"SAT-40", "SAT-50", "SAT-120", "SAT-300", "SAT-700"}
	for i, want := range wantOrder {
		if passes[i].Name != want {
			t.Errorf("passes[%d].Name = %s, want %s", i, passes[i].Name, want)
		}
	}
	for i := 1; i < len(passes); i++ {
		if passes[i].DistanceKm < passes[i-1].DistanceKm {
			t.Errorf("passes not ascending at %d: %v then %v", i, passes[i-1].DistanceKm, passes[i].DistanceKm)
		}
	}
	for _, p := range passes {
		if p.CatalogID == 0 {
			t.Errorf("pass %s lost its catalog ID", p.Name)
		}
	}
}

func TestSearchTracksMaxPasses(t *testing.T) {
	start := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	entries := make([]trackEntry, 4)
	for i := range entries {
		entries[i] = trackEntry{
			name: "SAT",
			track: &syntheticTrack{
				start:     start,
				target:    tokyo,
				closestAt: 5 * time.Minute,
				closestKm: float64(100 * (i + 1)),
			},
		}
	}

	params := Params{Lookahead: 10 * time.Minute, Step: time.Minute, MaxPasses: 2}
	passes := searchTracks(context.Background(), entries, tokyo, start, params)

	if len(passes) != 2 {
		t.Fatalf("got %d passes, want MaxPasses=2", len(passes))
	}
	if passes[0].DistanceKm > passes[1].DistanceKm {
		t.Error("truncated passes must stay ascending")
	}
}
