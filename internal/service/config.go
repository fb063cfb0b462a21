// Package service wires the transport, filter chain, engine, and
// observability into the running geofence daemon.
package service

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the daemon's runtime settings. Values come from the
// environment (optionally seeded from a .env file), with flags in
// cmd/geofenced able to override the addresses.
type Config struct {
	// RedisAddr is the host:port of the Redis instance carrying the
	// message bus (and the snapshot, when SnapshotBackend is "redis").
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ZoneDir holds one <account>.json zone file per account.
	ZoneDir string

	// SnapshotBackend selects the persistence collaborator:
	// "redis", "file", or "none".
	SnapshotBackend string
	// SnapshotPath is the snapshot file location for the file backend.
	SnapshotPath string

	// MetricsAddr is the HTTP listen address for /metrics.
	MetricsAddr string

	// MaxAge and MaxAccuracy parameterize the admission filter chain.
	// Zero disables the corresponding filter.
	MaxAge      time.Duration
	MaxAccuracy float64
}

// LoadConfig reads configuration from the environment. A .env file in
// the working directory is applied first when present; a missing file
// is fine.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		RedisAddr:       getenv("GEOFENCE_REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("GEOFENCE_REDIS_PASSWORD"),
		ZoneDir:         getenv("GEOFENCE_ZONE_DIR", "configs/zones"),
		SnapshotBackend: getenv("GEOFENCE_SNAPSHOT_BACKEND", "redis"),
		SnapshotPath:    getenv("GEOFENCE_SNAPSHOT_PATH", "geofence-snapshot.json"),
		MetricsAddr:     getenv("GEOFENCE_METRICS_ADDR", ":9090"),
	}

	if raw := os.Getenv("GEOFENCE_REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("GEOFENCE_REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}
	if raw := os.Getenv("GEOFENCE_MAX_AGE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("GEOFENCE_MAX_AGE: %w", err)
		}
		cfg.MaxAge = d
	}
	if raw := os.Getenv("GEOFENCE_MAX_ACCURACY"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GEOFENCE_MAX_ACCURACY: %w", err)
		}
		cfg.MaxAccuracy = v
	}

	return cfg.ApplyDefaults(), nil
}

// ApplyDefaults normalizes fields that are unset or out of range.
func (c Config) ApplyDefaults() Config {
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	switch c.SnapshotBackend {
	case "redis", "file", "none":
	default:
		c.SnapshotBackend = "redis"
	}
	if c.MaxAge < 0 {
		c.MaxAge = 0
	}
	if c.MaxAccuracy < 0 {
		c.MaxAccuracy = 0
	}
	return c
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
