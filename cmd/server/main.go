/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vacation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, config.yaml, VACATION_* env vars)
  2. Build the logger
  3. Open the SQLite store and run migrations
  4. Assemble the engine, handler, router and issuance scheduler
  5. Start the server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the issuance scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database connection

EXAMPLES:
  # Run with file database
  VACATION_DATABASE_PATH=./data/vacation.db ./server

  # Run on a different port
  VACATION_SERVER_PORT=3000 ./server

SEE ALSO:
  - internal/config/config.go: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atlashr/vacation-engine/api"
	"github.com/atlashr/vacation-engine/factory"
	"github.com/atlashr/vacation-engine/internal/config"
	"github.com/atlashr/vacation-engine/store/sqlite"
	"github.com/atlashr/vacation-engine/vacation"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("open database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()

	engine := vacation.NewEngine(store, vacation.SystemClock{}, store)

	if cfg.Database.SeedPresets {
		firstGrant := vacation.NewDate(engine.Today().Year(), 1, 1)
		if err := factory.SeedPresets(context.Background(), engine, firstGrant); err != nil {
			logger.Fatal("seed preset policies", zap.Error(err))
		}
		logger.Info("preset policies seeded")
	}

	handler := api.NewHandler(engine, store, logger)
	server := api.NewServer(handler, cfg.Server.Port, cfg.Server.CORSOrigins, logger)

	var scheduler *api.IssuanceScheduler
	if cfg.Scheduler.Enabled {
		scheduler = api.NewIssuanceScheduler(engine, cfg.Scheduler.Interval, logger)
		scheduler.Start()
		logger.Info("issuance scheduler started", zap.Duration("interval", cfg.Scheduler.Interval))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
