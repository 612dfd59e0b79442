package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"mixvault/internal/config"
	"mixvault/internal/database"
	"mixvault/internal/logging"
	"mixvault/internal/runner"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open catalog database", "startup_failed", logging.Error(err))
		log.Fatalf("open catalog database: %v", err)
	}
	defer db.Close()

	r, closeFn, err := runner.Build(cfg, db, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "build runner", "startup_failed", logging.Error(err))
		log.Fatalf("build runner: %v", err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("runner shutdown", logging.Error(err))
		}
	}()

	logger.Info("mixvaultd started",
		logging.String("mode", cfg.Canonicalize.Mode),
		logging.Int("batch_size", cfg.Runner.BatchSize),
		logging.Duration("poll_interval", time.Duration(cfg.Runner.PollIntervalSeconds)*time.Second),
	)
	newPoller(r, cfg, logger).loop(ctx)
	logger.Info("mixvaultd shutting down")
}
