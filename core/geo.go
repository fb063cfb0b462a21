// core/geo.go
package core

import (
	"errors"
	"math"

	"github.com/signalsfoundry/geofencer/model"
)

// EarthRadiusMeters is the mean Earth radius used for every spherical
// distance computation in the engine (metres).
const EarthRadiusMeters = 6371000.0

// ErrShortPath is returned when a path distance is requested for fewer
// than two points. A single point has no segments to measure against.
var ErrShortPath = errors.New("path needs at least 2 points")

// Distance returns the haversine great-circle distance between a and b
// in metres. It is symmetric and returns 0 for identical coordinates;
// the usual haversine caveats near antipodal points apply.
func Distance(a, b model.Location) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// DistanceToPath returns the minimum distance in metres from p to a
// polyline, taken over every consecutive pair of path points.
//
// Each segment contributes the absolute cross-track distance from p to
// the great-circle line through its two endpoints. The line is treated
// as infinite: a point abeam a segment's extension can measure closer
// than it is to any point actually on the path. Containment built on
// this is slightly permissive near segment ends, which matches how the
// original tracker behaved, so we keep it rather than clamping to the
// segment endpoints.
func DistanceToPath(p model.Location, path []model.Location) (float64, error) {
	if len(path) < 2 {
		return 0, ErrShortPath
	}

	min := math.Inf(1)
	for i := 0; i+1 < len(path); i++ {
		d := math.Abs(crossTrackDistance(path[i], path[i+1], p))
		if d < min {
			min = d
		}
	}
	return min, nil
}

// crossTrackDistance is the signed perpendicular distance from p to the
// great circle through a and b, in metres.
func crossTrackDistance(a, b, p model.Location) float64 {
	// Angular distance from a to p.
	d13 := Distance(a, p) / EarthRadiusMeters
	// Bearings a->p and a->b.
	t13 := bearing(a, p)
	t12 := bearing(a, b)

	return math.Asin(math.Sin(d13)*math.Sin(t13-t12)) * EarthRadiusMeters
}

// bearing returns the initial great-circle bearing from a to b in radians.
func bearing(a, b model.Location) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
