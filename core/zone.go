// core/zone.go
package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/geofencer/model"
)

// ErrInvalidZone flags a zone definition that failed validation. Such a
// zone is excluded from the account's active set at load time; it is
// never silently defaulted.
var ErrInvalidZone = errors.New("invalid zone definition")

// ZoneKind names the shape variant of a zone definition.
type ZoneKind string

const (
	ZoneKindPoint ZoneKind = "point"
	ZoneKindBox   ZoneKind = "box"
	ZoneKindPath  ZoneKind = "path"
)

// Zone is a named geographic region with a containment test and a
// distance metric. Callers never need to know which shape variant they
// hold. The error returns carry geometry failures so a malformed zone
// can be skipped for a single update without aborting the rest of the
// evaluation.
type Zone interface {
	Name() string
	Kind() ZoneKind
	Contains(loc model.Location) (bool, error)
	DistanceTo(loc model.Location) (float64, error)
}

//
// ---------- Point zones ----------
//

// PointZone is a circle: a centre plus a radius in metres.
type PointZone struct {
	ZoneName     string
	Center       model.Location
	RadiusMeters float64
}

func (z *PointZone) Name() string   { return z.ZoneName }
func (z *PointZone) Kind() ZoneKind { return ZoneKindPoint }

// Contains reports whether loc lies strictly inside the radius. The
// strict `<` (vs the inclusive tests of box and path zones) is
// deliberate: it reproduces the containment rules of the tracker this
// engine replaced.
func (z *PointZone) Contains(loc model.Location) (bool, error) {
	return Distance(loc, z.Center) < z.RadiusMeters, nil
}

func (z *PointZone) DistanceTo(loc model.Location) (float64, error) {
	return Distance(loc, z.Center), nil
}

// Validate checks the definition is usable: a name, plausible centre
// coordinates and a positive radius.
func (z *PointZone) Validate() error {
	if z.ZoneName == "" {
		return fmt.Errorf("%w: point zone without a name", ErrInvalidZone)
	}
	if err := validateCoordinates(z.Center); err != nil {
		return fmt.Errorf("%w: zone %q: %v", ErrInvalidZone, z.ZoneName, err)
	}
	if z.RadiusMeters <= 0 {
		return fmt.Errorf("%w: zone %q: radius must be positive, got %v", ErrInvalidZone, z.ZoneName, z.RadiusMeters)
	}
	return nil
}

//
// ---------- Box zones ----------
//

// BoxZone is an axis-aligned latitude/longitude rectangle.
type BoxZone struct {
	ZoneName string
	MinLat   float64
	MinLon   float64
	MaxLat   float64
	MaxLon   float64
}

func (z *BoxZone) Name() string   { return z.ZoneName }
func (z *BoxZone) Kind() ZoneKind { return ZoneKindBox }

// Contains uses inclusive bounds on all four edges.
func (z *BoxZone) Contains(loc model.Location) (bool, error) {
	inside := loc.Lat >= z.MinLat && loc.Lat <= z.MaxLat &&
		loc.Lon >= z.MinLon && loc.Lon <= z.MaxLon
	return inside, nil
}

// DistanceTo measures to the box midpoint, not the nearest edge. It is
// only used to rank overlapping zones, never for containment.
func (z *BoxZone) DistanceTo(loc model.Location) (float64, error) {
	mid := model.Location{
		Lat: (z.MinLat + z.MaxLat) / 2,
		Lon: (z.MinLon + z.MaxLon) / 2,
	}
	return Distance(loc, mid), nil
}

// Validate checks the corners are ordered and within coordinate range.
func (z *BoxZone) Validate() error {
	if z.ZoneName == "" {
		return fmt.Errorf("%w: box zone without a name", ErrInvalidZone)
	}
	for _, c := range []model.Location{
		{Lat: z.MinLat, Lon: z.MinLon},
		{Lat: z.MaxLat, Lon: z.MaxLon},
	} {
		if err := validateCoordinates(c); err != nil {
			return fmt.Errorf("%w: zone %q: %v", ErrInvalidZone, z.ZoneName, err)
		}
	}
	if z.MinLat > z.MaxLat || z.MinLon > z.MaxLon {
		return fmt.Errorf("%w: zone %q: min corner must not exceed max corner", ErrInvalidZone, z.ZoneName)
	}
	return nil
}

//
// ---------- Path zones ----------
//

// PathZone is a polyline buffered by a padding distance in metres.
type PathZone struct {
	ZoneName      string
	Points        []model.Location
	PaddingMeters float64
}

func (z *PathZone) Name() string   { return z.ZoneName }
func (z *PathZone) Kind() ZoneKind { return ZoneKindPath }

// Contains reports whether loc lies within the padding of the path
// (inclusive bound).
func (z *PathZone) Contains(loc model.Location) (bool, error) {
	d, err := DistanceToPath(loc, z.Points)
	if err != nil {
		return false, err
	}
	return d <= z.PaddingMeters, nil
}

func (z *PathZone) DistanceTo(loc model.Location) (float64, error) {
	return DistanceToPath(loc, z.Points)
}

// Validate checks the definition has a name, at least two plausible
// points, and positive padding.
func (z *PathZone) Validate() error {
	if z.ZoneName == "" {
		return fmt.Errorf("%w: path zone without a name", ErrInvalidZone)
	}
	if len(z.Points) < 2 {
		return fmt.Errorf("%w: zone %q: path needs at least 2 points, got %d", ErrInvalidZone, z.ZoneName, len(z.Points))
	}
	for i, p := range z.Points {
		if err := validateCoordinates(p); err != nil {
			return fmt.Errorf("%w: zone %q: point %d: %v", ErrInvalidZone, z.ZoneName, i, err)
		}
	}
	if z.PaddingMeters <= 0 {
		return fmt.Errorf("%w: zone %q: padding must be positive, got %v", ErrInvalidZone, z.ZoneName, z.PaddingMeters)
	}
	return nil
}

func validateCoordinates(loc model.Location) error {
	if loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", loc.Lat)
	}
	if loc.Lon < -180 || loc.Lon > 180 {
		return fmt.Errorf("longitude %v out of range", loc.Lon)
	}
	if loc.Lat == 0 && loc.Lon == 0 {
		return errors.New("null island coordinates")
	}
	return nil
}
