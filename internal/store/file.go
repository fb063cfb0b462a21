// Package store provides the optional snapshot persistence
// collaborators for the state registry. Both implementations are
// best-effort mirrors: a failed load starts the service empty and a
// failed save leaves in-memory state authoritative.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalsfoundry/geofencer/core"
)

// FileStore keeps the snapshot as a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store at path. The parent
// directory must exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot file. A missing file is not an error: it
// simply means no snapshot exists yet.
func (s *FileStore) Load(ctx context.Context) (*core.Snapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read snapshot %q: %w", s.path, err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("parse snapshot %q: %w", s.path, err)
	}
	if snap.ZoneStatus == nil {
		snap.ZoneStatus = make(map[string]map[string]bool)
	}
	if snap.CurrentZone == nil {
		snap.CurrentZone = make(map[string]string)
	}
	return &snap, true, nil
}

// Save writes the snapshot via a temp file and rename, so a crash
// mid-write never leaves a truncated snapshot behind.
func (s *FileStore) Save(ctx context.Context, snap *core.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %q: %w", s.path, err)
	}
	return nil
}
