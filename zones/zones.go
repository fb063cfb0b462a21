// Package zones loads and serves the per-account zone sets. A set is
// loaded from a JSON file named after the account and stays immutable
// until the whole directory is reloaded; the slice order of a set is
// the file order and feeds the engine's tie-break rule.
package zones

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/signalsfoundry/geofencer/core"
	"github.com/signalsfoundry/geofencer/internal/logging"
)

// Provider is an in-memory, thread-safe store of per-account zone sets.
type Provider struct {
	mu   sync.RWMutex
	sets map[string][]core.Zone

	log logging.Logger
}

// NewProvider constructs an empty provider.
func NewProvider(log logging.Logger) *Provider {
	if log == nil {
		log = logging.Noop()
	}
	return &Provider{
		sets: make(map[string][]core.Zone),
		log:  log,
	}
}

// LoadDir reads every *.json file in dir as one account's zone set; the
// account id is the file name without the extension. Individual invalid
// zone definitions are logged and excluded without poisoning the rest
// of their file. A file that fails outright (unreadable, malformed
// JSON) is skipped with an error log and the account keeps its previous
// set, if any.
//
// On success the provider's whole map is swapped, so LoadDir doubles as
// the reload path.
func (p *Provider) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read zone directory %q: %w", dir, err)
	}

	next := make(map[string][]core.Zone)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		account := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())

		zones, err := p.loadFile(ctx, account, path)
		if err != nil {
			p.log.Error(ctx, "skipping zone file",
				logging.String("path", path),
				logging.String("error", err.Error()))
			if prev, ok := p.GetZonesOK(account); ok {
				next[account] = prev
			}
			continue
		}
		next[account] = zones
	}

	p.mu.Lock()
	p.sets = next
	p.mu.Unlock()

	p.log.Info(ctx, "loaded zone sets",
		logging.String("dir", dir),
		logging.Int("accounts", len(next)))
	return nil
}

func (p *Provider) loadFile(ctx context.Context, account, path string) ([]core.Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zones, rejected, err := core.LoadZoneSet(f)
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		p.log.Warn(ctx, "rejected zone definition",
			logging.String("account", account),
			logging.String("zone", r.Name),
			logging.String("reason", r.Reason.Error()))
	}
	return zones, nil
}

// GetZones implements core.ZoneProvider.
func (p *Provider) GetZones(account string) ([]core.Zone, error) {
	zones, ok := p.GetZonesOK(account)
	if !ok {
		return nil, core.ErrUnknownAccount
	}
	return zones, nil
}

// GetZonesOK is GetZones with a presence flag instead of an error.
func (p *Provider) GetZonesOK(account string) ([]core.Zone, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	zones, ok := p.sets[account]
	return zones, ok
}

// Accounts returns every known account id, sorted.
func (p *Provider) Accounts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.sets))
	for account := range p.sets {
		out = append(out, account)
	}
	sort.Strings(out)
	return out
}
