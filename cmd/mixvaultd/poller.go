package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mixvault/internal/config"
	"mixvault/internal/logging"
	"mixvault/internal/runner"
)

type batchRunner interface {
	Run(ctx context.Context, limit int) (runner.Summary, error)
	ExportMetrics() error
}

// poller runs batches until the queue drains, then sleeps for the poll
// interval.
type poller struct {
	runner    batchRunner
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

func newPoller(r batchRunner, cfg *config.Config, logger *slog.Logger) *poller {
	return &poller{
		runner:    r,
		batchSize: cfg.Runner.BatchSize,
		interval:  time.Duration(cfg.Runner.PollIntervalSeconds) * time.Second,
		logger:    logging.NewComponentLogger(logger, "poller"),
	}
}

func (p *poller) loop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		wait := p.interval
		if backlog := p.cycle(ctx); backlog {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// cycle runs one batch and reports whether pending work likely remains.
func (p *poller) cycle(ctx context.Context) bool {
	summary, err := p.runner.Run(ctx, p.batchSize)
	if exportErr := p.runner.ExportMetrics(); exportErr != nil {
		p.logger.Warn("metrics export failed", logging.Error(exportErr))
	}
	switch {
	case err == nil:
	case errors.Is(err, runner.ErrAlreadyRunning):
		p.logger.Info("another run holds the runner lock; waiting")
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		logging.ErrorWithContext(p.logger, "batch failed", "poll_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check catalog database health"),
		)
		return false
	}
	if summary.Processed > 0 {
		p.logger.Info("batch finished",
			logging.String("run_id", summary.RunID),
			logging.Int("processed", summary.Processed),
			logging.Int("created", summary.Created),
			logging.Int("duplicates", summary.Duplicates),
			logging.Int("failed", summary.Failed),
		)
	}
	return p.batchSize > 0 && summary.Processed >= p.batchSize
}
