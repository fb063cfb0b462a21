package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/geofencer/model"
)

func TestDistance_SamePoint(t *testing.T) {
	p := model.Location{Lat: 48.8566, Lon: 2.3522}
	if d := Distance(p, p); d != 0 {
		t.Errorf("Distance(p, p) = %v, want 0", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := model.Location{Lat: 48.8566, Lon: 2.3522}  // Paris
	b := model.Location{Lat: 51.5074, Lon: -0.1278} // London
	dab := Distance(a, b)
	dba := Distance(b, a)
	if math.Abs(dab-dba) > 1e-6 {
		t.Errorf("Distance not symmetric: %v vs %v", dab, dba)
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// Paris -> London is about 343.5 km; allow a generous tolerance
	// for the spherical approximation.
	a := model.Location{Lat: 48.8566, Lon: 2.3522}
	b := model.Location{Lat: 51.5074, Lon: -0.1278}
	d := Distance(a, b)
	if d < 340000 || d > 348000 {
		t.Errorf("Distance(Paris, London) = %v m, want ~343500 m", d)
	}
}

func TestDistance_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	a := model.Location{Lat: 0, Lon: 0}
	b := model.Location{Lat: 1, Lon: 0}
	d := Distance(a, b)
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 1 {
		t.Errorf("Distance = %v, want %v", d, want)
	}
}

func TestDistanceToPath_ShortPath(t *testing.T) {
	p := model.Location{Lat: 0, Lon: 0}
	if _, err := DistanceToPath(p, nil); err != ErrShortPath {
		t.Errorf("nil path: err = %v, want ErrShortPath", err)
	}
	if _, err := DistanceToPath(p, []model.Location{{Lat: 1, Lon: 1}}); err != ErrShortPath {
		t.Errorf("1-point path: err = %v, want ErrShortPath", err)
	}
}

func TestDistanceToPath_PointOnPath(t *testing.T) {
	path := []model.Location{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
	}
	d, err := DistanceToPath(model.Location{Lat: 0, Lon: 0.5}, path)
	if err != nil {
		t.Fatalf("DistanceToPath: %v", err)
	}
	if d > 1 {
		t.Errorf("distance of on-path point = %v m, want ~0", d)
	}
}

func TestDistanceToPath_PerpendicularOffset(t *testing.T) {
	// A straight equatorial segment; a point 0.1 deg north of its
	// midpoint should measure the plain perpendicular cross-track
	// distance (~11.119 km).
	path := []model.Location{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
	}
	p := model.Location{Lat: 0.1, Lon: 0.5}

	d, err := DistanceToPath(p, path)
	if err != nil {
		t.Fatalf("DistanceToPath: %v", err)
	}
	want := 0.1 * EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 20 {
		t.Errorf("cross-track distance = %v, want %v ± 20 m", d, want)
	}
}

func TestDistanceToPath_PicksNearestSegment(t *testing.T) {
	// An L-shaped path. The probe sits just off the second leg, so the
	// minimum must come from that segment, not the first.
	path := []model.Location{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1},
	}
	p := model.Location{Lat: 0.5, Lon: 1.01}

	d, err := DistanceToPath(p, path)
	if err != nil {
		t.Fatalf("DistanceToPath: %v", err)
	}
	// ~0.01 deg of longitude near the equator is ~1.1 km.
	if d > 2000 {
		t.Errorf("distance = %v m, expected the nearby second leg (< 2 km)", d)
	}
}

func TestDistanceToPath_InfiniteLineBehavior(t *testing.T) {
	// The cross-track measure extends each segment's great circle past
	// its endpoints. A point abeam the extension still reads the
	// perpendicular distance, not the distance to the nearest endpoint.
	path := []model.Location{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
	}
	p := model.Location{Lat: 0.1, Lon: 2} // well past the eastern endpoint

	d, err := DistanceToPath(p, path)
	if err != nil {
		t.Fatalf("DistanceToPath: %v", err)
	}
	endpoint := Distance(p, path[1])
	if d >= endpoint {
		t.Errorf("cross-track %v should be below endpoint distance %v", d, endpoint)
	}
}
