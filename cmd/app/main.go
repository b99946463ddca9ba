package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/config"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/configstore"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/database"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/event"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/experience"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/handler"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/metrics"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/permission"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/progression"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/server"
	pgstore "github.com/Khim-khaos/CraftMastery-sub001/internal/store/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCfg := logger.ProductionConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logger.Setup(logCfg)

	for _, warning := range cfg.Warnings() {
		slog.Warn(warning)
	}

	ctx := context.Background()
	bus := event.NewMemoryBus()

	// Tree definitions + unlock graph
	treeStore, err := configstore.New(cfg.TreeConfigPath, cfg.StrictPrereqs, bus)
	if err != nil {
		slog.Error("Failed to initialize tree store", "error", err)
		os.Exit(1)
	}
	if err := treeStore.Load(ctx); err != nil {
		// Last known good (or the default-only tree) stays published.
		slog.Error("Tree config load failed, continuing with fallback tree", "error", err)
	}

	// Player state storage: durable when DATABASE_URL is set
	var playerStore progression.Store
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = database.NewPool(ctx, cfg.DatabaseURL, 10, 5*time.Minute, 30*time.Minute)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		playerStore = pgstore.NewStore(pool)
	} else {
		playerStore = progression.NewMemoryStore()
	}

	resolver := permission.NewResolver()
	if err := resolver.LoadDefaultsFile(cfg.PermissionsPath); err != nil {
		slog.Error("Permission defaults load failed, using builtin defaults", "error", err)
	}
	xp := experience.NewLedger(experience.NewCurve())
	svc := progression.NewService(playerStore, treeStore, resolver, xp, bus)

	// Event-driven engine metrics
	if err := metrics.NewEventMetricsCollector().Register(bus); err != nil {
		slog.Error("Failed to register event metrics collector", "error", err)
	}

	var readiness handler.Pinger
	if pool != nil {
		readiness = pool
	}

	srv := server.NewServer(server.Config{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		TrustedProxies: cfg.TrustedProxies,
		Progression:    handler.NewProgressionHandlers(svc),
		Admin:          handler.NewAdminHandlers(svc, treeStore, resolver),
		Readiness:      readiness,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Server forced shutdown", "error", err)
	}
	slog.Info("Server stopped")
}
