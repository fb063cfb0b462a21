package model

import (
	"testing"
	"time"
)

func TestParseLocation_FullPayload(t *testing.T) {
	payload := []byte(`{"lat":52.52,"lon":13.405,"acc":12.5,"tst":1700000000}`)

	loc, err := ParseLocation(payload)
	if err != nil {
		t.Fatalf("ParseLocation: %v", err)
	}
	if loc.Lat != 52.52 || loc.Lon != 13.405 {
		t.Errorf("coordinates = (%v, %v), want (52.52, 13.405)", loc.Lat, loc.Lon)
	}
	if !loc.HasAccuracy() || loc.Accuracy != 12.5 {
		t.Errorf("accuracy = %v, want 12.5", loc.Accuracy)
	}
	if !loc.HasTimestamp() {
		t.Fatalf("expected timestamp to be set")
	}
	if got := loc.Timestamp; !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v, want %v", got, time.Unix(1700000000, 0))
	}
}

func TestParseLocation_MinimalPayload(t *testing.T) {
	loc, err := ParseLocation([]byte(`{"lat":-33.86,"lon":151.21}`))
	if err != nil {
		t.Fatalf("ParseLocation: %v", err)
	}
	if loc.HasAccuracy() {
		t.Errorf("expected unknown accuracy, got %v", loc.Accuracy)
	}
	if loc.HasTimestamp() {
		t.Errorf("expected zero timestamp, got %v", loc.Timestamp)
	}
}

func TestParseLocation_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `in`,
		"lat too big":    `{"lat":91,"lon":0}`,
		"lat too small":  `{"lat":-91,"lon":0}`,
		"lon too big":    `{"lat":0,"lon":181}`,
		"lon too small":  `{"lat":0,"lon":-180.5}`,
		"truncated body": `{"lat":12.3,`,
	}
	for name, payload := range cases {
		if _, err := ParseLocation([]byte(payload)); err == nil {
			t.Errorf("%s: expected error for %q", name, payload)
		}
	}
}

func TestEncodeLocation_RoundTrip(t *testing.T) {
	in := Location{
		Lat:       40.71,
		Lon:       -74.0,
		Accuracy:  8,
		Timestamp: time.Unix(1700000100, 0).UTC(),
	}
	payload, err := EncodeLocation(in)
	if err != nil {
		t.Fatalf("EncodeLocation: %v", err)
	}
	out, err := ParseLocation(payload)
	if err != nil {
		t.Fatalf("ParseLocation: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
