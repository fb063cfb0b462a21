package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Location is a single geolocation sample. It is a plain value: callers
// copy it freely and nothing in the system mutates one after creation.
type Location struct {
	// Latitude and Longitude in signed degrees.
	Lat float64
	Lon float64

	// Accuracy is the reported horizontal accuracy in metres.
	// Zero means "unknown"; filters treat unknown accuracy as acceptable.
	Accuracy float64

	// Timestamp is the UTC instant the sample was taken. A zero value
	// means the origin did not report one and the sample counts as "now"
	// at ingestion.
	Timestamp time.Time
}

// HasTimestamp reports whether the sample carries an origin timestamp.
func (l Location) HasTimestamp() bool {
	return !l.Timestamp.IsZero()
}

// HasAccuracy reports whether the sample carries a usable accuracy figure.
func (l Location) HasAccuracy() bool {
	return l.Accuracy != 0
}

// locationWire is the JSON shape location publishers put on the bus.
// Timestamps travel as Unix seconds; zero/absent means unset.
type locationWire struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"acc,omitempty"`
	Tst      int64   `json:"tst,omitempty"`
}

// ParseLocation decodes the bus payload for a location sample.
// Latitude and longitude are required; accuracy and timestamp are
// optional and default to "unknown".
func ParseLocation(payload []byte) (Location, error) {
	var w locationWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return Location{}, fmt.Errorf("parse location: %w", err)
	}
	if w.Lat < -90 || w.Lat > 90 {
		return Location{}, fmt.Errorf("parse location: latitude %v out of range", w.Lat)
	}
	if w.Lon < -180 || w.Lon > 180 {
		return Location{}, fmt.Errorf("parse location: longitude %v out of range", w.Lon)
	}

	loc := Location{
		Lat:      w.Lat,
		Lon:      w.Lon,
		Accuracy: w.Accuracy,
	}
	if w.Tst > 0 {
		loc.Timestamp = time.Unix(w.Tst, 0).UTC()
	}
	return loc, nil
}

// EncodeLocation renders a Location back into the bus payload shape.
// Used by tests and tooling that publish synthetic samples.
func EncodeLocation(loc Location) ([]byte, error) {
	w := locationWire{
		Lat:      loc.Lat,
		Lon:      loc.Lon,
		Accuracy: loc.Accuracy,
	}
	if loc.HasTimestamp() {
		w.Tst = loc.Timestamp.Unix()
	}
	return json.Marshal(w)
}
