// Command geofenced evaluates location updates against per-account zone
// sets and publishes enter/exit and current-zone events on the message
// bus.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/signalsfoundry/geofencer/core"
	"github.com/signalsfoundry/geofencer/internal/bus"
	"github.com/signalsfoundry/geofencer/internal/logging"
	"github.com/signalsfoundry/geofencer/internal/observability"
	"github.com/signalsfoundry/geofencer/internal/service"
	"github.com/signalsfoundry/geofencer/internal/store"
	"github.com/signalsfoundry/geofencer/zones"
)

func main() {
	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := service.LoadConfig()
	if err != nil {
		log.Error(ctx, "invalid configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}

	redisAddr := flag.String("redis-addr", cfg.RedisAddr, "host:port of the Redis message bus")
	zoneDir := flag.String("zones", cfg.ZoneDir, "Directory of per-account zone files (<account>.json)")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "HTTP address for Prometheus /metrics")
	flag.Parse()
	cfg.RedisAddr = *redisAddr
	cfg.ZoneDir = *zoneDir
	cfg.MetricsAddr = *metricsAddr

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Warn(ctx, "tracing disabled", logging.String("error", err.Error()))
	}

	client := backend.NewClient(&backend.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	provider := zones.NewProvider(log)
	if err := provider.LoadDir(ctx, cfg.ZoneDir); err != nil {
		log.Error(ctx, "failed to load zone directory",
			logging.String("dir", cfg.ZoneDir), logging.String("error", err.Error()))
		os.Exit(1)
	}
	recordZoneCounts(provider, collector)

	registry := core.NewStateRegistry(log,
		core.WithSnapshotStore(snapshotStore(cfg, client, log)))
	registry.Restore(ctx)

	engine := core.NewEngine(provider, registry, log)
	filters := core.NewFilterChain(core.FilterConfig{
		MaxAge:      cfg.MaxAge,
		MaxAccuracy: cfg.MaxAccuracy,
	})

	svc := service.New(engine, filters,
		bus.NewPublisher(client), bus.NewSubscriber(client, log),
		collector, log)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGHUP reloads the zone directory without dropping state.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if err := provider.LoadDir(ctx, cfg.ZoneDir); err != nil {
				log.Warn(ctx, "zone reload failed; keeping previous sets",
					logging.String("error", err.Error()))
				continue
			}
			recordZoneCounts(provider, collector)
		}
	}()

	log.Info(ctx, "geofenced starting",
		logging.String("redis", cfg.RedisAddr),
		logging.String("zones", cfg.ZoneDir))
	if err := svc.Run(runCtx); err != nil && runCtx.Err() == nil {
		log.Error(ctx, "service exited", logging.String("error", err.Error()))
	}

	log.Info(ctx, "shutting down")
	signal.Stop(reload)
	close(reload)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(shutdownCtx, shutdownTracing, log)
}

// snapshotStore picks the persistence backend from config, falling back
// to the file store when Redis is unreachable at startup.
func snapshotStore(cfg service.Config, client *backend.Client, log logging.Logger) core.SnapshotStore {
	switch cfg.SnapshotBackend {
	case "none":
		return nil
	case "file":
		return store.NewFileStore(cfg.SnapshotPath)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn(pingCtx, "redis unreachable for snapshots; using file store",
			logging.String("path", cfg.SnapshotPath),
			logging.String("error", err.Error()))
		return store.NewFileStore(cfg.SnapshotPath)
	}
	return store.NewRedisStore(client)
}

func recordZoneCounts(provider *zones.Provider, collector *observability.Collector) {
	accounts := provider.Accounts()
	total := 0
	for _, account := range accounts {
		if zs, ok := provider.GetZonesOK(account); ok {
			total += len(zs)
		}
	}
	collector.SetZoneCounts(len(accounts), total)
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
