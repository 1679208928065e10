package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/camdash/camdash/internal/config"
	"github.com/camdash/camdash/internal/database"
	"github.com/camdash/camdash/internal/modules/analytics"
	"github.com/camdash/camdash/internal/modules/changelog"
	"github.com/camdash/camdash/internal/modules/snapshots"
	"github.com/camdash/camdash/internal/scheduler"
	"github.com/camdash/camdash/internal/server"
	"github.com/camdash/camdash/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting CAM dashboard backend")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Load connector snapshots. A missing daily metrics file is not fatal:
	// the API serves 422s until the first refresh succeeds.
	store := snapshots.NewStore(cfg.SnapshotDir, log)
	if err := store.Reload(); err != nil {
		log.Warn().Err(err).Msg("Initial snapshot load failed, waiting for refresh")
	}

	// Wire modules
	engineCfg := analytics.DefaultConfig()
	engineCfg.NCACTarget = cfg.NCACTarget
	engineCfg.MERFloor = cfg.MERFloor
	engine := analytics.NewEngine(engineCfg)

	changelogRepo := changelog.NewRepository(db.Conn(), log)
	historyRepo := analytics.NewHistoryRepository(db.Conn(), log)

	metricsHandlers := analytics.NewHandlers(store, engine, historyRepo, changelogRepo, log)
	changelogHandlers := changelog.NewHandlers(changelogRepo, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	systemHandlers := server.NewSystemHandlers(log, db, store, sched)

	// Register background jobs
	if err := registerJobs(sched, systemHandlers, store, engine, historyRepo, db, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Metrics:   metricsHandlers,
		Changelog: changelogHandlers,
		System:    systemHandlers,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	system *server.SystemHandlers,
	store *snapshots.Store,
	engine *analytics.Engine,
	history *analytics.HistoryRepository,
	db *database.DB,
	cfg *config.Config,
	log zerolog.Logger,
) error {
	refresh := scheduler.NewSnapshotRefreshJob(store, engine, history, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refresh); err != nil {
		return err
	}
	system.SetRefreshJob(refresh)

	// Integrity check every 6 hours
	if err := sched.AddJob("0 0 */6 * * *", scheduler.NewHealthCheckJob(db, log)); err != nil {
		return err
	}

	return nil
}
