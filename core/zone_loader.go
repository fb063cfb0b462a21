// core/zone_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/geofencer/model"
)

// RejectedZone records one definition that failed validation and was
// excluded from the active set. Mainly useful for logging and for the
// zonecheck tool.
type RejectedZone struct {
	Name   string
	Reason error
}

// internal JSON shapes – unexported so we're free to evolve them.
// A single flat struct covers all three kinds; the "kind" field picks
// which subset of fields is meaningful.
type zoneJSON struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "point" | "box" | "path"

	// Point fields.
	Lat          float64 `json:"lat,omitempty"`
	Lon          float64 `json:"lon,omitempty"`
	RadiusMeters float64 `json:"radius_m,omitempty"`

	// Box fields.
	MinLat float64 `json:"min_lat,omitempty"`
	MinLon float64 `json:"min_lon,omitempty"`
	MaxLat float64 `json:"max_lat,omitempty"`
	MaxLon float64 `json:"max_lon,omitempty"`

	// Path fields.
	Points        []pointJSON `json:"points,omitempty"`
	PaddingMeters float64     `json:"padding_m,omitempty"`
}

type pointJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LoadZoneSet reads a JSON array of zone definitions from r and returns
// the active set in file order, alongside the definitions that were
// rejected. It fails outright only on JSON or structural errors; a
// single bad definition lands in rejected and the rest still load.
// Duplicate names within the set are rejected past the first occurrence.
func LoadZoneSet(r io.Reader) ([]Zone, []RejectedZone, error) {
	var defs []zoneJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&defs); err != nil {
		return nil, nil, fmt.Errorf("LoadZoneSet: decode failed: %w", err)
	}

	active := make([]Zone, 0, len(defs))
	var rejected []RejectedZone
	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		zone, err := zoneFromJSON(def)
		if err == nil && seen[zone.Name()] {
			err = fmt.Errorf("%w: duplicate zone name %q", ErrInvalidZone, zone.Name())
		}
		if err != nil {
			rejected = append(rejected, RejectedZone{Name: def.Name, Reason: err})
			continue
		}
		seen[zone.Name()] = true
		active = append(active, zone)
	}
	return active, rejected, nil
}

// zoneFromJSON dispatches on the "kind" field and validates the result.
func zoneFromJSON(def zoneJSON) (Zone, error) {
	switch strings.ToLower(strings.TrimSpace(def.Kind)) {
	case "point":
		z := &PointZone{
			ZoneName:     def.Name,
			Center:       model.Location{Lat: def.Lat, Lon: def.Lon},
			RadiusMeters: def.RadiusMeters,
		}
		if err := z.Validate(); err != nil {
			return nil, err
		}
		return z, nil

	case "box":
		z := &BoxZone{
			ZoneName: def.Name,
			MinLat:   def.MinLat,
			MinLon:   def.MinLon,
			MaxLat:   def.MaxLat,
			MaxLon:   def.MaxLon,
		}
		if err := z.Validate(); err != nil {
			return nil, err
		}
		return z, nil

	case "path":
		points := make([]model.Location, 0, len(def.Points))
		for _, p := range def.Points {
			points = append(points, model.Location{Lat: p.Lat, Lon: p.Lon})
		}
		z := &PathZone{
			ZoneName:      def.Name,
			Points:        points,
			PaddingMeters: def.PaddingMeters,
		}
		if err := z.Validate(); err != nil {
			return nil, err
		}
		return z, nil

	default:
		return nil, fmt.Errorf("%w: zone %q: unknown kind %q", ErrInvalidZone, def.Name, def.Kind)
	}
}
