package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/geofencer/core"
	"github.com/signalsfoundry/geofencer/internal/store"
)

func sampleSnapshot() *core.Snapshot {
	snap := core.NewSnapshot()
	snap.ZoneStatus["alice"] = map[string]bool{"home": true, "campus": false}
	snap.CurrentZone["alice"] = "home"
	snap.CurrentZone["bob"] = "" // explicit none must survive persistence
	return snap
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	s := store.NewFileStore(path)
	ctx := context.Background()

	// Nothing persisted yet.
	snap, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snap)

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	snap, ok, err = s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snap.ZoneStatus["alice"]["home"])
	assert.False(t, snap.ZoneStatus["alice"]["campus"])
	assert.Equal(t, "home", snap.CurrentZone["alice"])

	// bob's explicit none is an entry, not an absence.
	zone, present := snap.CurrentZone["bob"]
	require.True(t, present)
	assert.Equal(t, "", zone)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, store.NewFileStore(path).Save(context.Background(), sampleSnapshot()))

	// Truncate the file to garbage and reload.
	require.NoError(t, writeRaw(path, "{broken"))
	_, ok, err := store.NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	s := store.NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	next := core.NewSnapshot()
	next.CurrentZone["alice"] = "campus"
	require.NoError(t, s.Save(ctx, next))

	snap, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "campus", snap.CurrentZone["alice"])
	assert.Empty(t, snap.ZoneStatus)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	s := store.NewRedisStore(client)
	ctx := context.Background()

	snap, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snap)

	require.NoError(t, s.Save(ctx, sampleSnapshot()))

	snap, ok, err = s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snap.ZoneStatus["alice"]["home"])
	assert.Equal(t, "home", snap.CurrentZone["alice"])
}

func TestRedisStore_CustomKey(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	s := store.NewRedisStore(client, store.WithKey("geofence:test:snap"))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot()))
	assert.True(t, mr.Exists("geofence:test:snap"))

	_, ok, err := store.NewRedisStore(client).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "default key must not see the custom key's snapshot")
}

func TestRedisStore_ServerGone(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	s := store.NewRedisStore(client)
	mr.Close()

	assert.Error(t, s.Save(context.Background(), sampleSnapshot()))
	_, _, err = s.Load(context.Background())
	assert.Error(t, err)
}
