package core

import (
	"context"
	"errors"
	"testing"

	"github.com/signalsfoundry/geofencer/internal/logging"
	"github.com/signalsfoundry/geofencer/model"
)

// staticZones is a ZoneProvider backed by a plain map, in configured
// slice order.
type staticZones map[string][]Zone

func (s staticZones) GetZones(account string) ([]Zone, error) {
	zones, ok := s[account]
	if !ok {
		return nil, ErrUnknownAccount
	}
	return zones, nil
}

func newTestEngine(zones staticZones) (*Engine, *StateRegistry) {
	state := NewStateRegistry(logging.Noop())
	return NewEngine(zones, state, logging.Noop()), state
}

func TestProcessUpdate_OverlappingZonesTieBreak(t *testing.T) {
	// Two concentric point zones; the device sits on the shared
	// centre, so both contain it at distance 0. The winner must be
	// the one configured first, across repeated runs.
	center := model.Location{Lat: 10, Lon: 10}
	zones := staticZones{
		"e1": {
			&PointZone{ZoneName: "A", Center: center, RadiusMeters: 100},
			&PointZone{ZoneName: "B", Center: center, RadiusMeters: 200},
		},
	}

	for run := 0; run < 5; run++ {
		engine, _ := newTestEngine(zones)
		result, err := engine.ProcessUpdate(context.Background(), "e1", center)
		if err != nil {
			t.Fatalf("run %d: ProcessUpdate: %v", run, err)
		}

		if len(result.StatusChanges) != 2 {
			t.Fatalf("run %d: status changes = %d, want 2", run, len(result.StatusChanges))
		}
		for _, c := range result.StatusChanges {
			if !c.Inside {
				t.Errorf("run %d: zone %q status = out, want in", run, c.Zone)
			}
		}
		if result.CurrentChange == nil || result.CurrentChange.Zone != "A" {
			t.Errorf("run %d: current zone = %+v, want A (configured-order tie-break)", run, result.CurrentChange)
		}
	}
}

func TestProcessUpdate_NearestZoneWins(t *testing.T) {
	zones := staticZones{
		"e1": {
			&PointZone{ZoneName: "far", Center: model.Location{Lat: 10, Lon: 10.5}, RadiusMeters: 100000},
			&PointZone{ZoneName: "near", Center: model.Location{Lat: 10, Lon: 10.1}, RadiusMeters: 100000},
		},
	}
	engine, _ := newTestEngine(zones)

	result, err := engine.ProcessUpdate(context.Background(), "e1", model.Location{Lat: 10, Lon: 10})
	if err != nil {
		t.Fatalf("ProcessUpdate: %v", err)
	}
	if result.CurrentChange == nil || result.CurrentChange.Zone != "near" {
		t.Errorf("current zone = %+v, want near (smaller distance beats config order)", result.CurrentChange)
	}
}

func TestProcessUpdate_NoZonesAccount(t *testing.T) {
	zones := staticZones{"e1": {}}
	engine, _ := newTestEngine(zones)
	ctx := context.Background()
	loc := model.Location{Lat: 10, Lon: 10}

	// First update: the explicit "none" is a first observation and
	// emits exactly one current-zone change.
	result, err := engine.ProcessUpdate(ctx, "e1", loc)
	if err != nil {
		t.Fatalf("ProcessUpdate: %v", err)
	}
	if len(result.StatusChanges) != 0 {
		t.Errorf("status changes = %v, want none", result.StatusChanges)
	}
	if result.CurrentChange == nil || result.CurrentChange.Zone != "" {
		t.Fatalf("current change = %+v, want explicit none", result.CurrentChange)
	}

	// Nothing thereafter while it stays none.
	for i := 0; i < 3; i++ {
		result, err = engine.ProcessUpdate(ctx, "e1", loc)
		if err != nil {
			t.Fatalf("ProcessUpdate: %v", err)
		}
		if result.Changed() {
			t.Errorf("update %d: result = %+v, want no changes", i, result)
		}
	}
}

func TestProcessUpdate_UnknownAccount(t *testing.T) {
	engine, state := newTestEngine(staticZones{})

	_, err := engine.ProcessUpdate(context.Background(), "nobody", model.Location{Lat: 1, Lon: 1})
	if !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("err = %v, want ErrUnknownAccount", err)
	}
	if _, ok := state.CurrentZone("nobody"); ok {
		t.Errorf("a dropped update must not create state")
	}
}

func TestProcessUpdate_EnterThenExit(t *testing.T) {
	home := &PointZone{ZoneName: "home", Center: model.Location{Lat: 51, Lon: 7}, RadiusMeters: 500}
	zones := staticZones{"e1": {home}}
	engine, _ := newTestEngine(zones)
	ctx := context.Background()

	inside := model.Location{Lat: 51, Lon: 7}
	outside := model.Location{Lat: 52, Lon: 7}

	result, err := engine.ProcessUpdate(ctx, "e1", inside)
	if err != nil {
		t.Fatalf("ProcessUpdate: %v", err)
	}
	if len(result.StatusChanges) != 1 || !result.StatusChanges[0].Inside {
		t.Fatalf("enter: status changes = %+v, want single in", result.StatusChanges)
	}
	if result.CurrentChange == nil || result.CurrentChange.Zone != "home" {
		t.Fatalf("enter: current = %+v, want home", result.CurrentChange)
	}

	// Standing still: no further events.
	result, _ = engine.ProcessUpdate(ctx, "e1", inside)
	if result.Changed() {
		t.Fatalf("repeat inside: result = %+v, want no changes", result)
	}

	// Leaving: one exit status change plus a current-zone reset.
	result, err = engine.ProcessUpdate(ctx, "e1", outside)
	if err != nil {
		t.Fatalf("ProcessUpdate: %v", err)
	}
	if len(result.StatusChanges) != 1 || result.StatusChanges[0].Inside {
		t.Fatalf("exit: status changes = %+v, want single out", result.StatusChanges)
	}
	if result.CurrentChange == nil || result.CurrentChange.Zone != "" {
		t.Fatalf("exit: current = %+v, want none", result.CurrentChange)
	}
}
