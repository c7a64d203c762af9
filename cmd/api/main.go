// Command api is the Telecast scheduling API server.
//
// Usage:
//
//	telecast-api
//	API_PORT=8080 telecast-api

// @title Telecast Scheduling API
// @version 1.0.0
// @description Content-scheduling core for multi-channel sports content automation: timing templates, kickoff-relative schedules, automation rules, smart-push follow-ups.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Telecast
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/scorewire/telecast/internal/api"
	"github.com/scorewire/telecast/internal/api/handler"
	"github.com/scorewire/telecast/internal/automation"
	"github.com/scorewire/telecast/internal/config"
	"github.com/scorewire/telecast/internal/db"
	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
	"github.com/scorewire/telecast/internal/listener"
	"github.com/scorewire/telecast/internal/reaper"
	"github.com/scorewire/telecast/internal/schedule"
	"github.com/scorewire/telecast/internal/smartpush"
	"github.com/scorewire/telecast/internal/ticker"

	_ "github.com/scorewire/telecast/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Apply pending migrations before taking traffic
	if version, dirty, err := db.Migrate(cfg.DatabaseURL); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	} else {
		logger.Info("Schema up to date", "version", version, "dirty", dirty)
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Collaborator clients
	gen := generator.NewClient(cfg.GeneratorBaseURL, cfg.GeneratorAPIKey, cfg.CollaboratorTO)
	sender := distribution.NewClient(cfg.DistributorBaseURL, cfg.DistributorAPIKey, cfg.CollaboratorTO)

	loc, err := time.LoadLocation(cfg.PushLocalTZ)
	if err != nil {
		logger.Error("Invalid PUSH_LOCAL_TZ", "tz", cfg.PushLocalTZ, "error", err)
		os.Exit(1)
	}

	// Stores and engines
	scheduleStore := schedule.NewStore(pool.Pool)
	ruleStore := automation.NewStore(pool.Pool)
	queueStore := smartpush.NewStore(pool.Pool)
	logStore := reaper.NewStore(pool.Pool)

	push := smartpush.NewEngine(queueStore, gen, sender, nil, nil, loc, logger)
	runner := schedule.NewRunner(scheduleStore, gen, sender, push, cfg.DueLookback, logger)
	engine := automation.NewEngine(ruleStore, ruleStore, ruleStore, gen, sender, nil, nil, 0, logger)
	rpr := reaper.New(logStore, nil, logger)
	compiler := schedule.NewCompiler(nil, nil)

	// Apply match postponements/reschedules pushed over LISTEN/NOTIFY
	go listener.Start(ctx, cfg.DatabaseURL, scheduleStore, logger)

	pipeline := ticker.NewPipeline(pool.Pool, runner, engine, push, rpr, compiler, scheduleStore, logger)
	service := ticker.NewService(pipeline, ticker.Intervals{
		Minute:    cfg.MinuteTickInterval,
		Hourly:    cfg.HourlyTickInterval,
		Discovery: cfg.DiscoveryTickInterval,
	}, logger)

	if cfg.TickerAutoStart {
		service.Start()
	}

	// Create router
	h := handler.New(pool.Pool, cfg, pipeline, service, push, ruleStore, scheduleStore, rpr)
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Telecast Scheduling API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	service.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
