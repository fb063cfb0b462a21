// core/registry.go
package core

import (
	"context"
	"sync"

	"github.com/signalsfoundry/geofencer/internal/logging"
)

// ZoneStatusChange records one flip of an account's in/out status for a
// single zone.
type ZoneStatusChange struct {
	Account string
	Zone    string
	Inside  bool
}

// CurrentZoneChange records a change of an account's current zone.
// An empty Zone means "no current zone".
type CurrentZoneChange struct {
	Account string
	Zone    string
}

// Snapshot is the full persisted copy of both state maps. The empty
// string is a real CurrentZone value ("explicitly none"); a missing key
// means the account was never evaluated.
type Snapshot struct {
	ZoneStatus  map[string]map[string]bool `json:"zone_status"`
	CurrentZone map[string]string          `json:"current_zone"`
}

// NewSnapshot returns an empty snapshot with both maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ZoneStatus:  make(map[string]map[string]bool),
		CurrentZone: make(map[string]string),
	}
}

// SnapshotStore is the optional persistence collaborator. Load returns
// (nil, false, nil) when no snapshot exists yet. Both operations are
// best-effort from the registry's point of view: failures are logged
// and in-memory state stays authoritative.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, bool, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// StateRegistry owns the per-account zone-status and current-zone maps.
// It detects changes, returns change records to the caller, and mirrors
// its state to an optional SnapshotStore. The registry never invokes
// subscriber callbacks: emission order is the caller's business.
//
// The internal mutex makes individual operations safe from any
// goroutine; serializing the read-modify-write cycle of one account's
// full update is the engine's job.
type StateRegistry struct {
	mu          sync.RWMutex
	zoneStatus  map[string]map[string]bool
	currentZone map[string]string

	store SnapshotStore
	log   logging.Logger

	// saveMu serializes best-effort snapshot writes. The snapshot is
	// captured under it, so whichever write lands last always carries
	// the newest state.
	saveMu sync.Mutex
}

// RegistryOption configures a StateRegistry.
type RegistryOption func(*StateRegistry)

// WithSnapshotStore attaches a persistence collaborator.
func WithSnapshotStore(store SnapshotStore) RegistryOption {
	return func(r *StateRegistry) { r.store = store }
}

// NewStateRegistry creates an empty registry.
func NewStateRegistry(log logging.Logger, opts ...RegistryOption) *StateRegistry {
	if log == nil {
		log = logging.Noop()
	}
	r := &StateRegistry{
		zoneStatus:  make(map[string]map[string]bool),
		currentZone: make(map[string]string),
		log:         log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore loads the persisted snapshot, if any. A read failure is
// non-fatal: the registry starts empty and the service keeps going.
func (r *StateRegistry) Restore(ctx context.Context) {
	if r.store == nil {
		return
	}
	snap, ok, err := r.store.Load(ctx)
	if err != nil {
		r.log.Warn(ctx, "snapshot load failed; starting with empty state",
			logging.String("error", err.Error()))
		return
	}
	if !ok || snap == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for account, zones := range snap.ZoneStatus {
		m := make(map[string]bool, len(zones))
		for zone, inside := range zones {
			m[zone] = inside
		}
		r.zoneStatus[account] = m
	}
	for account, zone := range snap.CurrentZone {
		r.currentZone[account] = zone
	}
	r.log.Info(ctx, "restored state snapshot",
		logging.Int("accounts", len(snap.CurrentZone)))
}

// UpdateZoneStatus stores the in/out status for (account, zone) and
// reports whether it changed. A first observation always counts as a
// change, whatever the value; repeating the stored value is a no-op.
func (r *StateRegistry) UpdateZoneStatus(ctx context.Context, account, zone string, inside bool) (ZoneStatusChange, bool) {
	r.mu.Lock()
	zones, seen := r.zoneStatus[account]
	if !seen {
		zones = make(map[string]bool)
		r.zoneStatus[account] = zones
	}
	prev, hadPrev := zones[zone]
	if hadPrev && prev == inside {
		r.mu.Unlock()
		return ZoneStatusChange{}, false
	}
	zones[zone] = inside
	r.mu.Unlock()

	r.persist(ctx)
	return ZoneStatusChange{Account: account, Zone: zone, Inside: inside}, true
}

// UpdateCurrentZone stores the account's current zone ("" meaning none)
// and reports whether it changed. The first observation always counts
// as a change, including a first explicit "none".
func (r *StateRegistry) UpdateCurrentZone(ctx context.Context, account, zone string) (CurrentZoneChange, bool) {
	r.mu.Lock()
	prev, hadPrev := r.currentZone[account]
	if hadPrev && prev == zone {
		r.mu.Unlock()
		return CurrentZoneChange{}, false
	}
	r.currentZone[account] = zone
	r.mu.Unlock()

	r.persist(ctx)
	return CurrentZoneChange{Account: account, Zone: zone}, true
}

// ZoneStatus returns the stored status for (account, zone) and whether
// one exists. "Never evaluated" is distinct from false.
func (r *StateRegistry) ZoneStatus(account, zone string) (bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	zones, ok := r.zoneStatus[account]
	if !ok {
		return false, false
	}
	inside, ok := zones[zone]
	return inside, ok
}

// CurrentZone returns the stored current zone for an account and
// whether one exists. "Never evaluated" is distinct from explicit none.
func (r *StateRegistry) CurrentZone(account string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	zone, ok := r.currentZone[account]
	return zone, ok
}

// Snapshot returns a deep copy of the full current state.
func (r *StateRegistry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *StateRegistry) snapshotLocked() *Snapshot {
	snap := NewSnapshot()
	for account, zones := range r.zoneStatus {
		m := make(map[string]bool, len(zones))
		for zone, inside := range zones {
			m[zone] = inside
		}
		snap.ZoneStatus[account] = m
	}
	for account, zone := range r.currentZone {
		snap.CurrentZone[account] = zone
	}
	return snap
}

// persist mirrors the current state to the store off the caller's
// critical path. The snapshot is taken only after saveMu is held, so a
// burst of changes can never leave an older snapshot as the final
// durable record. A write failure is logged; memory stays
// authoritative.
func (r *StateRegistry) persist(ctx context.Context) {
	if r.store == nil {
		return
	}
	go func() {
		r.saveMu.Lock()
		defer r.saveMu.Unlock()
		snap := r.Snapshot()
		if err := r.store.Save(context.WithoutCancel(ctx), snap); err != nil {
			r.log.Warn(ctx, "snapshot save failed; keeping in-memory state",
				logging.String("error", err.Error()))
		}
	}()
}
