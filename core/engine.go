// core/engine.go
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/geofencer/internal/logging"
	"github.com/signalsfoundry/geofencer/model"
)

// ErrUnknownAccount indicates no zone set could be resolved for the
// reporting account. The update is dropped and logged.
var ErrUnknownAccount = errors.New("unknown account")

// ZoneProvider resolves the configured zone set for an account. The
// returned order must be stable across calls within a process lifetime:
// it feeds the current-zone tie-break.
type ZoneProvider interface {
	GetZones(account string) ([]Zone, error)
}

// UpdateResult carries the change records produced by one processed
// location update, in emission order: every zone-status flip first,
// then the current-zone change if there was one.
type UpdateResult struct {
	StatusChanges []ZoneStatusChange
	CurrentChange *CurrentZoneChange
}

// Changed reports whether the update produced any observable change.
func (r *UpdateResult) Changed() bool {
	return len(r.StatusChanges) > 0 || r.CurrentChange != nil
}

// Engine evaluates accepted location updates against an account's zone
// set and drives the state registry.
//
// Updates for different accounts run concurrently; updates for the same
// account are serialized on a per-account mutex held across the full
// evaluate-and-commit sequence, so an older update can never clobber a
// newer one's conclusion. Evaluation is pure computation: there is no
// cancellation or timeout once a sample has been accepted.
type Engine struct {
	zones ZoneProvider
	state *StateRegistry
	log   logging.Logger

	mu       sync.Mutex
	accounts map[string]*sync.Mutex
}

// NewEngine wires an engine to its zone provider and state registry.
func NewEngine(zones ZoneProvider, state *StateRegistry, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{
		zones:    zones,
		state:    state,
		log:      log,
		accounts: make(map[string]*sync.Mutex),
	}
}

// candidate is a containing zone remembered during evaluation, with the
// distance used for ranking.
type candidate struct {
	distance float64
	zone     Zone
}

// ProcessUpdate runs one accepted location update for an account.
//
// Every zone in the configured set gets its status updated; containing
// zones compete for "current zone" by ascending distance, with ties
// broken by configured order (stable sort). A zone whose geometry check
// fails is skipped with a warning and affects neither the other zones
// nor previously stored state.
func (e *Engine) ProcessUpdate(ctx context.Context, account string, loc model.Location) (*UpdateResult, error) {
	zones, err := e.zones.GetZones(account)
	if err != nil {
		return nil, fmt.Errorf("resolve zones for %q: %w", account, err)
	}

	lock := e.accountLock(account)
	lock.Lock()
	defer lock.Unlock()

	result := &UpdateResult{}
	candidates := make([]candidate, 0, len(zones))

	for _, z := range zones {
		inside, err := z.Contains(loc)
		if err != nil {
			e.log.Warn(ctx, "zone evaluation failed; skipping zone",
				logging.String("account", account),
				logging.String("zone", z.Name()),
				logging.String("error", err.Error()))
			continue
		}

		if inside {
			d, err := z.DistanceTo(loc)
			if err != nil {
				e.log.Warn(ctx, "zone distance failed; skipping zone",
					logging.String("account", account),
					logging.String("zone", z.Name()),
					logging.String("error", err.Error()))
				continue
			}
			candidates = append(candidates, candidate{distance: d, zone: z})
		}

		if change, changed := e.state.UpdateZoneStatus(ctx, account, z.Name(), inside); changed {
			result.StatusChanges = append(result.StatusChanges, change)
		}
	}

	winner := ""
	if len(candidates) > 0 {
		// Candidates were gathered in configured order, so a stable
		// sort by distance leaves equal-distance zones in that order:
		// the deterministic tie-break.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].distance < candidates[j].distance
		})
		winner = candidates[0].zone.Name()
	}

	if change, changed := e.state.UpdateCurrentZone(ctx, account, winner); changed {
		result.CurrentChange = &change
	}
	return result, nil
}

func (e *Engine) accountLock(account string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.accounts[account]
	if !ok {
		lock = &sync.Mutex{}
		e.accounts[account] = lock
	}
	return lock
}
