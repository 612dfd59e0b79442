package canonical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mixvault/internal/catalog"
	"mixvault/internal/claims"
	"mixvault/internal/dedup"
	"mixvault/internal/logging"
	"mixvault/internal/matcher"
	"mixvault/internal/queue"
	"mixvault/internal/services"
)

const stageName = "canonicalize"

// RawStore is the staging surface the engine reads and transitions.
type RawStore interface {
	GetByID(ctx context.Context, id int64) (*queue.RawMix, error)
	Tracks(ctx context.Context, rawMixID int64) ([]queue.RawTrack, error)
	MarkProcessing(ctx context.Context, id int64) error
	MarkCanonicalized(ctx context.Context, id, mixID int64) error
}

// Catalog is the production store surface the engine writes.
type Catalog interface {
	dedup.MixFinder
	CreateMix(ctx context.Context, mix *catalog.Mix) error
	UpdateMix(ctx context.Context, mix *catalog.Mix) error
	CountMixTracks(ctx context.Context, mixID int64) (int, error)
	CreateTrack(ctx context.Context, title string, v catalog.Verification, source string) (*catalog.Track, error)
	CreateArtist(ctx context.Context, name string, v catalog.Verification, source string) (*catalog.Artist, error)
	AddMixTrack(ctx context.Context, link catalog.MixTrack) error
	AddTrackArtist(ctx context.Context, link catalog.TrackArtist) error
	AddMixArtist(ctx context.Context, mixID, artistID int64, role string) error
	AddTrackAlias(ctx context.Context, alias catalog.TrackAlias) (bool, error)
}

// TrackMatcher resolves raw tracks and artist names against the catalog.
type TrackMatcher interface {
	MatchTrack(ctx context.Context, c matcher.Candidate) (matcher.Result, error)
	FindMatchingArtists(ctx context.Context, names []string) ([]matcher.ArtistMatch, error)
}

// Claimer serializes duplicate-check and create for one external identity
// across processes.
type Claimer interface {
	Claim(ctx context.Context, provider, externalID string) (claims.Release, error)
}

// Result summarizes one canonicalization.
type Result struct {
	RawMixID       int64
	MixID          int64
	IsDuplicate    bool
	AlreadyDone    bool
	Success        bool
	TracksCreated  int
	TracksReused   int
	TracksLinked   int
	ArtistsCreated int
	ArtistsReused  int
	AliasesCreated int
	Errors         []error
}

// ErrorText joins the accumulated track errors.
func (r *Result) ErrorText() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	return errors.Join(r.Errors...).Error()
}

// Engine canonicalizes raw mixes.
type Engine struct {
	raw     RawStore
	catalog Catalog
	matcher TrackMatcher
	dedup   *dedup.Detector
	claimer Claimer
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClaimer enables claims around duplicate-check and create.
func WithClaimer(c Claimer) Option {
	return func(e *Engine) {
		e.claimer = c
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "canonical")
	}
}

// WithClock overrides the verification clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(raw RawStore, cat Catalog, m TrackMatcher, opts ...Option) *Engine {
	e := &Engine{
		raw:     raw,
		catalog: cat,
		matcher: m,
		dedup:   dedup.NewDetector(cat),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanonicalizeMix drives raw mix rawMixID to a canonical mix. A returned
// error is mix-level: the raw mix was not found, could not be read, or the
// mix could not be created or merged. Track-level failures are reported in
// Result.Errors with Success still true.
func (e *Engine) CanonicalizeMix(ctx context.Context, rawMixID int64, opts Options) (*Result, error) {
	result := &Result{RawMixID: rawMixID}
	opts, err := opts.normalized()
	if err != nil {
		return result, services.Wrap(services.ErrValidation, stageName, "options", "", err)
	}

	ctx = services.WithRawMixID(services.WithStage(ctx, stageName), rawMixID)
	raw, err := e.raw.GetByID(ctx, rawMixID)
	if err != nil {
		return result, services.Wrap(services.ErrStore, stageName, "load raw mix", "", err)
	}
	if raw == nil {
		return result, services.Wrap(services.ErrNotFound, stageName, "load raw mix", fmt.Sprintf("raw mix %d", rawMixID), nil)
	}
	ctx = services.WithProvider(ctx, raw.Provider)
	logger := logging.WithContext(ctx, e.logger)

	switch raw.Status {
	case queue.StatusCanonicalized:
		result.MixID = raw.CanonicalizedMixID
		result.AlreadyDone = true
		result.Success = true
		logger.Debug("raw mix already canonicalized", logging.Int64(logging.FieldMixID, raw.CanonicalizedMixID))
		return result, nil
	case queue.StatusFailed:
		return result, services.Wrap(services.ErrValidation, stageName, "load raw mix",
			fmt.Sprintf("raw mix %d is failed; reset it to pending first", rawMixID), nil)
	}

	if err := e.raw.MarkProcessing(ctx, rawMixID); err != nil {
		return result, services.Wrap(services.ErrStore, stageName, "mark processing", "", err)
	}
	// Once processing, the mix runs to a terminal state even if the caller
	// cancels; shutdown is honored between mixes.
	ctx = context.WithoutCancel(ctx)

	tracks, err := e.raw.Tracks(ctx, rawMixID)
	if err != nil {
		return result, services.Wrap(services.ErrStore, stageName, "load raw tracks", "", err)
	}

	ids := dedup.BuildExternalIDs(raw.Provider, raw.ExternalID)
	mix, importTracks, err := e.resolveMix(ctx, raw, ids, opts, result)
	if err != nil {
		return result, err
	}
	result.MixID = mix.ID

	if importTracks {
		e.importTracks(ctx, mix.ID, raw.Provider, tracks, opts, result)
	}

	if err := e.raw.MarkCanonicalized(ctx, rawMixID, mix.ID); err != nil {
		return result, services.Wrap(services.ErrStore, stageName, "mark canonicalized", "", err)
	}
	result.Success = true

	attrs := []logging.Attr{
		logging.Int64(logging.FieldMixID, mix.ID),
		logging.Bool("duplicate", result.IsDuplicate),
		logging.Int("tracks_created", result.TracksCreated),
		logging.Int("tracks_reused", result.TracksReused),
		logging.Int("artists_created", result.ArtistsCreated),
		logging.Int("aliases_created", result.AliasesCreated),
		logging.Int("track_errors", len(result.Errors)),
	}
	if len(result.Errors) > 0 {
		logging.WarnWithContext(logger, "raw mix canonicalized with track errors", "canonicalize_partial",
			append(attrs,
				logging.String("errors", result.ErrorText()),
				logging.String(logging.FieldErrorHint, "inspect the failing tracklist lines"),
			)...)
	} else {
		logger.Info("raw mix canonicalized", logging.Args(attrs...)...)
	}
	return result, nil
}

// resolveMix finds or creates the catalog mix for raw. It reports whether the
// raw tracklist should be imported.
func (e *Engine) resolveMix(ctx context.Context, raw *queue.RawMix, ids catalog.ExternalIDs, opts Options, result *Result) (*catalog.Mix, bool, error) {
	if e.claimer != nil && len(ids) > 0 {
		provider := ids.Providers()[0]
		release, err := e.claimer.Claim(ctx, provider, ids[provider])
		if err != nil {
			return nil, false, services.Wrap(services.ErrTransient, stageName, "claim external id", ids[provider], err)
		}
		defer release()
	}

	dup, err := e.dedup.CheckForDuplicateMix(ctx, ids)
	if err != nil {
		return nil, false, services.Wrap(services.ErrStore, stageName, "duplicate check", "", err)
	}
	incoming := mixFromRaw(raw, ids)

	if dup.IsDuplicate {
		result.IsDuplicate = true
		mix := dup.Existing
		if dedup.Merge(mix, incoming) {
			if err := e.catalog.UpdateMix(ctx, mix); err != nil {
				return nil, false, services.Wrap(services.ErrStore, stageName, "merge mix", "", err)
			}
		}
		count, err := e.catalog.CountMixTracks(ctx, mix.ID)
		if err != nil {
			return nil, false, services.Wrap(services.ErrStore, stageName, "count mix tracks", "", err)
		}
		return mix, count == 0, nil
	}

	incoming.Verification = VerificationFor(EntityMix, matcher.TierHigh, opts, e.now())
	if err := e.catalog.CreateMix(ctx, &incoming); err != nil {
		return nil, false, services.Wrap(services.ErrStore, stageName, "create mix", "", err)
	}
	if err := e.linkPerformers(ctx, &incoming, raw, opts, result); err != nil {
		return nil, false, err
	}
	return &incoming, true, nil
}

func mixFromRaw(raw *queue.RawMix, ids catalog.ExternalIDs) catalog.Mix {
	title := strings.TrimSpace(raw.RawTitle)
	return catalog.Mix{
		Title:           title,
		Description:     strings.TrimSpace(raw.RawDescription),
		AudioURL:        strings.TrimSpace(raw.SourceURL),
		CoverURL:        strings.TrimSpace(raw.ArtworkURL),
		Duration:        raw.DurationSeconds,
		PublishedDate:   raw.UploadedAt,
		ExternalIDs:     ids.Clone(),
		IngestionSource: raw.Provider,
		RawMixID:        raw.ID,
	}
}

// linkPerformers resolves the raw performer string into dj artists.
func (e *Engine) linkPerformers(ctx context.Context, mix *catalog.Mix, raw *queue.RawMix, opts Options, result *Result) error {
	primary, featured := matcher.SplitArtists(raw.RawArtist)
	names := append(primary, featured...)
	if len(names) == 0 {
		return nil
	}
	matches, err := e.matcher.FindMatchingArtists(ctx, names)
	if err != nil {
		return services.Wrap(services.ErrStore, stageName, "match performers", "", err)
	}
	for _, m := range matches {
		artist, err := e.resolveArtist(ctx, m, raw.Provider, opts, result)
		if err != nil {
			return services.Wrap(services.ErrStore, stageName, "create performer", m.Name, err)
		}
		if err := e.catalog.AddMixArtist(ctx, mix.ID, artist.ID, catalog.RoleDJ); err != nil {
			return services.Wrap(services.ErrStore, stageName, "link performer", m.Name, err)
		}
	}
	return nil
}

// resolveArtist reuses a high-confidence match and creates an artist for
// anything else.
func (e *Engine) resolveArtist(ctx context.Context, m matcher.ArtistMatch, source string, opts Options, result *Result) (*catalog.Artist, error) {
	if m.IsHighConfidence && m.Artist != nil {
		result.ArtistsReused++
		return m.Artist, nil
	}
	artist, err := e.catalog.CreateArtist(ctx, m.Name, VerificationFor(EntityArtist, m.Tier, opts, e.now()), source)
	if err != nil {
		return nil, err
	}
	result.ArtistsCreated++
	return artist, nil
}
