package store

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/signalsfoundry/geofencer/core"
)

// RedisStore keeps the snapshot in a single Redis key.
type RedisStore struct {
	client *backend.Client
	key    string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey overrides the snapshot key.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) { s.key = key }
}

// NewRedisStore creates a Redis-backed snapshot store from an existing
// client.
func NewRedisStore(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    "geofence:snapshot",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches and decodes the snapshot key. A missing key means no
// snapshot exists yet.
func (s *RedisStore) Load(ctx context.Context) (*core.Snapshot, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load snapshot from redis: %w", err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, false, fmt.Errorf("parse snapshot from redis: %w", err)
	}
	if snap.ZoneStatus == nil {
		snap.ZoneStatus = make(map[string]map[string]bool)
	}
	if snap.CurrentZone == nil {
		snap.CurrentZone = make(map[string]string)
	}
	return &snap, true, nil
}

// Save serializes the snapshot into the key with no expiry.
func (s *RedisStore) Save(ctx context.Context, snap *core.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot to redis: %w", err)
	}
	return nil
}
