package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"mixvault/internal/canonical"
	"mixvault/internal/catalog"
	"mixvault/internal/config"
	"mixvault/internal/contextdetect"
	"mixvault/internal/dedup"
	"mixvault/internal/logging"
	"mixvault/internal/metrics"
	"mixvault/internal/queue"
	"mixvault/internal/services"
)

// ErrAlreadyRunning reports that another runner holds the instance lock.
var ErrAlreadyRunning = errors.New("another mixvault runner is already running")

// RawQueue is the staging surface the runner drives.
type RawQueue interface {
	PendingBatch(ctx context.Context, limit int) ([]*queue.RawMix, error)
	MarkFailed(ctx context.Context, id int64, message string) error
	RetryFailed(ctx context.Context, maxAge time.Duration) (int64, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

// ContextStore persists detected contexts and venues.
type ContextStore interface {
	UpsertContext(ctx context.Context, name, contextType string, parentID int64) (int64, error)
	LinkMixContext(ctx context.Context, mixID, contextID int64, confidence float64, reasons []string) error
	UpsertVenue(ctx context.Context, venue catalog.Venue) (int64, error)
	SetMixVenue(ctx context.Context, mixID, venueID int64) (bool, error)
}

// Canonicalizer drives one raw mix into the catalog.
type Canonicalizer interface {
	CanonicalizeMix(ctx context.Context, rawMixID int64, opts canonical.Options) (*canonical.Result, error)
}

// Dependencies are the collaborators of a Runner. Detector, Sink and
// Metrics are optional.
type Dependencies struct {
	Raw      RawQueue
	Contexts ContextStore
	Engine   Canonicalizer
	Detector *contextdetect.Detector
	Sink     *logging.Sink
	Metrics  *metrics.PipelineMetrics
}

// Runner processes batches of pending raw mixes.
type Runner struct {
	cfg      *config.Config
	deps     Dependencies
	limiter  *rate.Limiter
	logger   *slog.Logger
	lockPath string
	newRunID func() string
	now      func() time.Time
}

// New constructs a Runner.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || deps.Raw == nil || deps.Engine == nil {
		return nil, errors.New("runner requires config, raw queue, and engine")
	}
	if deps.Detector != nil && deps.Contexts == nil {
		return nil, errors.New("runner requires a context store when a detector is set")
	}
	r := &Runner{
		cfg:      cfg,
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, "runner"),
		lockPath: filepath.Join(cfg.LockDir(), "runner.lock"),
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	if cfg.Runner.MaxPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Runner.MaxPerSecond), 1)
	}
	return r, nil
}

// MixFailure records a raw mix that ended failed.
type MixFailure struct {
	RawMixID int64  `json:"raw_mix_id"`
	Error    string `json:"error"`
}

// Summary reports a run.
type Summary struct {
	RunID         string        `json:"run_id"`
	Processed     int           `json:"processed"`
	Created       int           `json:"created"`
	Duplicates    int           `json:"duplicates"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	TrackErrors   int           `json:"track_errors"`
	ContextsSaved int           `json:"contexts_saved"`
	Failures      []MixFailure  `json:"failures,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Run processes up to limit pending raw mixes. A non-positive limit uses the
// configured batch size.
func (r *Runner) Run(ctx context.Context, limit int) (Summary, error) {
	unlock, err := r.acquire()
	if err != nil {
		return Summary{}, err
	}
	defer unlock()
	return r.run(ctx, limit)
}

// Retry resets failed raw mixes updated within maxAge to pending and then
// runs a batch. A negative maxAge uses the configured window; zero resets
// every failed raw mix.
func (r *Runner) Retry(ctx context.Context, maxAge time.Duration, limit int) (int64, Summary, error) {
	unlock, err := r.acquire()
	if err != nil {
		return 0, Summary{}, err
	}
	defer unlock()

	if maxAge < 0 {
		maxAge = time.Duration(r.cfg.Runner.RetryMaxAgeHours) * time.Hour
	}
	reset, err := r.deps.Raw.RetryFailed(ctx, maxAge)
	if err != nil {
		return 0, Summary{}, services.Wrap(services.ErrStore, "retry", "reset failed", "", err)
	}
	r.logger.Info("failed raw mixes reset",
		logging.Int64("reset", reset),
		logging.Duration("max_age", maxAge),
		logging.String(logging.FieldEventType, "retry_reset"),
	)
	summary, err := r.run(ctx, limit)
	return reset, summary, err
}

func (r *Runner) acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(r.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release runner lock",
				logging.String("lock", r.lockPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "runner_unlock_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no runner is active"),
			)
		}
	}, nil
}

func (r *Runner) run(ctx context.Context, limit int) (Summary, error) {
	started := r.now()
	summary := Summary{RunID: r.newRunID()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if limit <= 0 {
		limit = r.cfg.Runner.BatchSize
	}
	batch, err := r.deps.Raw.PendingBatch(ctx, limit)
	if err != nil {
		return summary, services.Wrap(services.ErrStore, "run", "load pending batch", "", err)
	}
	slices.SortStableFunc(batch, func(a, b *queue.RawMix) int {
		return dedup.ProviderPriority(b.Provider) - dedup.ProviderPriority(a.Provider)
	})

	logger.Info("run started", logging.Int("batch", len(batch)), logging.String(logging.FieldEventType, "run_started"))
	r.publish(logging.Event{RunID: summary.RunID, Level: "info", Event: "run_started",
		Message: fmt.Sprintf("%d pending raw mixes", len(batch))})

	opts := canonical.OptionsFromConfig(r.cfg.Canonicalize)
	for _, raw := range batch {
		if err := ctx.Err(); err != nil {
			logging.WarnWithContext(logger, "run cancelled", "run_cancelled",
				logging.Int("remaining", len(batch)-summary.Processed),
				logging.String(logging.FieldErrorHint, "rerun to process the remaining raw mixes"),
			)
			break
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				break
			}
		}
		r.processOne(ctx, raw, opts, &summary)
	}

	summary.Duration = r.now().Sub(started)
	logger.Info("run finished",
		logging.Int("processed", summary.Processed),
		logging.Int("created", summary.Created),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("failed", summary.Failed),
		logging.Int("track_errors", summary.TrackErrors),
		logging.Duration("duration", summary.Duration),
		logging.String(logging.FieldEventType, "run_finished"),
	)
	r.publish(logging.Event{RunID: summary.RunID, Level: "info", Event: "run_finished",
		Message: fmt.Sprintf("processed=%d created=%d duplicates=%d failed=%d", summary.Processed, summary.Created, summary.Duplicates, summary.Failed)})
	r.recordQueueDepth(ctx)
	return summary, nil
}

func (r *Runner) processOne(ctx context.Context, raw *queue.RawMix, opts canonical.Options, summary *Summary) {
	ctx = services.WithProvider(services.WithRawMixID(ctx, raw.ID), raw.Provider)
	logger := logging.WithContext(ctx, r.logger)
	started := r.now()
	summary.Processed++

	res, err := r.deps.Engine.CanonicalizeMix(ctx, raw.ID, opts)
	elapsed := r.now().Sub(started)
	if err != nil {
		message := failureText(err, res)
		summary.Failed++
		summary.Failures = append(summary.Failures, MixFailure{RawMixID: raw.ID, Error: message})
		if !services.IsNotFound(err) {
			if markErr := r.deps.Raw.MarkFailed(context.WithoutCancel(ctx), raw.ID, message); markErr != nil {
				logging.WarnWithContext(logger, "failed to record raw mix failure", "mark_failed_error",
					logging.Error(markErr),
					logging.String(logging.FieldErrorHint, "check catalog database health"),
				)
			}
		}
		logging.ErrorWithContext(logger, "raw mix failed", "canonicalize_failed",
			logging.String("error", message),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, "run `mixvault retry` after fixing the cause"),
		)
		r.publish(logging.Event{RunID: summary.RunID, RawMixID: raw.ID, Level: "error", Event: "mix_failed", Message: message})
		r.record(metrics.MixResult{Outcome: metrics.OutcomeFailed, Duration: elapsed})
		return
	}

	outcome := metrics.OutcomeCreated
	switch {
	case res.AlreadyDone:
		outcome = metrics.OutcomeSkipped
		summary.Skipped++
	case res.IsDuplicate:
		outcome = metrics.OutcomeDuplicate
		summary.Duplicates++
	default:
		summary.Created++
	}
	summary.TrackErrors += len(res.Errors)

	if !res.AlreadyDone {
		summary.ContextsSaved += r.persistContexts(ctx, res.MixID, raw)
	}

	level := "info"
	message := fmt.Sprintf("mix=%d tracks_created=%d tracks_reused=%d artists_created=%d aliases=%d",
		res.MixID, res.TracksCreated, res.TracksReused, res.ArtistsCreated, res.AliasesCreated)
	if len(res.Errors) > 0 {
		level = "warn"
		message += " errors: " + res.ErrorText()
	}
	r.publish(logging.Event{RunID: summary.RunID, RawMixID: raw.ID, Level: level, Event: "mix_" + outcome, Message: message})
	r.record(metrics.MixResult{
		Outcome:        outcome,
		TracksCreated:  res.TracksCreated,
		TracksReused:   res.TracksReused,
		ArtistsCreated: res.ArtistsCreated,
		AliasesCreated: res.AliasesCreated,
		TrackErrors:    len(res.Errors),
		Duration:       elapsed,
	})
}

func failureText(err error, res *canonical.Result) string {
	if res == nil || len(res.Errors) == 0 {
		return err.Error()
	}
	return errors.Join(append([]error{err}, res.Errors...)...).Error()
}

func (r *Runner) publish(evt logging.Event) {
	if r.deps.Sink == nil {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = r.now().UTC()
	}
	r.deps.Sink.Publish(evt)
}

func (r *Runner) record(res metrics.MixResult) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordMix(res)
	}
}

func (r *Runner) recordQueueDepth(ctx context.Context) {
	if r.deps.Metrics == nil {
		return
	}
	counts, err := r.deps.Raw.Stats(ctx)
	if err != nil {
		r.logger.Debug("queue depth unavailable", logging.Error(err))
		return
	}
	depth := make(map[string]int, len(counts))
	for status, n := range counts {
		depth[string(status)] = n
	}
	r.deps.Metrics.SetQueueDepth(depth)
	r.deps.Metrics.MarkRunFinished(r.now())
}

// ExportMetrics refreshes the event sink counters and writes the metrics
// textfile when one is configured.
func (r *Runner) ExportMetrics() error {
	if r.deps.Metrics == nil {
		return nil
	}
	if r.deps.Sink != nil {
		stats := r.deps.Sink.Stats()
		r.deps.Metrics.SetSinkStats(stats.Published, stats.Written, stats.Dropped, stats.Failed)
	}
	return r.deps.Metrics.WriteTextfile(r.cfg.Metrics.TextfilePath)
}
