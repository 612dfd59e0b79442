package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mixvault/internal/canonical"
	"mixvault/internal/catalog"
	"mixvault/internal/claims"
	"mixvault/internal/config"
	"mixvault/internal/contextdetect"
	"mixvault/internal/database"
	"mixvault/internal/logging"
	"mixvault/internal/matcher"
	"mixvault/internal/metrics"
	"mixvault/internal/queue"
)

const sinkDrainTimeout = 5 * time.Second

// Build wires a Runner over db from configuration. The returned close
// function drains the ingestion log sink and writes the metrics textfile.
func Build(cfg *config.Config, db *database.DB, logger *slog.Logger) (*Runner, func() error, error) {
	if cfg == nil || db == nil {
		return nil, nil, errors.New("build runner: config and database are required")
	}
	raw := queue.New(db)
	cat := catalog.New(db)

	m := matcher.New(cat, matcher.ThresholdsFromConfig(cfg.Matcher), matcher.WithLogger(logger))
	engineOpts := []canonical.Option{canonical.WithLogger(logger)}
	locker, err := claims.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if locker != nil {
		engineOpts = append(engineOpts, canonical.WithClaimer(locker))
	}
	engine := canonical.NewEngine(raw, cat, m, engineOpts...)

	var detector *contextdetect.Detector
	if cfg.Canonicalize.DetectContexts {
		if detector, err = contextdetect.NewFromConfig(cfg.Detector, logger); err != nil {
			return nil, nil, fmt.Errorf("build detector: %w", err)
		}
	}

	pm, err := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	sink := logging.NewSink(cat, cfg.Logging.SinkBuffer, logger)

	r, err := New(cfg, Dependencies{
		Raw:      raw,
		Contexts: cat,
		Engine:   engine,
		Detector: detector,
		Sink:     sink,
		Metrics:  pm,
	}, logger)
	if err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkDrainTimeout)
		defer cancel()
		_ = sink.Close(ctx)
		return nil, nil, err
	}

	closeFn := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), sinkDrainTimeout)
		defer cancel()
		var errs []error
		if err := sink.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain event sink: %w", err))
		}
		if stats := sink.Stats(); stats.Dropped > 0 || stats.Failed > 0 {
			logging.WarnWithContext(logger, "ingestion events lost", "event_sink_loss",
				logging.Any("dropped", stats.Dropped),
				logging.Any("failed", stats.Failed),
				logging.String(logging.FieldErrorHint, "raise logging.sink_buffer or check database health"),
			)
		}
		if err := r.ExportMetrics(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
	return r, closeFn, nil
}
