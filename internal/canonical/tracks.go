package canonical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mixvault/internal/catalog"
	"mixvault/internal/database"
	"mixvault/internal/logging"
	"mixvault/internal/matcher"
	"mixvault/internal/queue"
)

var errEmptyTrack = errors.New("tracklist line has no title")

// importTracks resolves and links every raw track in position order. Failures
// are appended to result.Errors and the next track is processed.
func (e *Engine) importTracks(ctx context.Context, mixID int64, source string, tracks []queue.RawTrack, opts Options, result *Result) {
	logger := logging.WithContext(ctx, e.logger)
	for _, raw := range tracks {
		if err := e.importTrack(ctx, mixID, source, raw, opts, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("track %d: %w", raw.Position, err))
			logging.WarnWithContext(logger, "track import failed", "track_import_failed",
				logging.Int64(logging.FieldMixID, mixID),
				logging.Int("position", raw.Position),
				logging.String("line", trackSurface(raw)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the tracklist line and retry the raw mix"),
			)
		}
	}
}

func (e *Engine) importTrack(ctx context.Context, mixID int64, source string, raw queue.RawTrack, opts Options, result *Result) error {
	match, err := e.matcher.MatchTrack(ctx, matcher.Candidate{
		Line:   raw.LineText,
		Title:  raw.RawTitle,
		Artist: raw.RawArtist,
	})
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	var track *catalog.Track
	if match.Track.IsHighConfidence && match.Track.Track != nil {
		track = match.Track.Track
		result.TracksReused++
	} else {
		title := strings.TrimSpace(match.Track.Title)
		if title == "" {
			return errEmptyTrack
		}
		track, err = e.catalog.CreateTrack(ctx, title, VerificationFor(EntityTrack, match.Track.Tier, opts, e.now()), source)
		if err != nil {
			return fmt.Errorf("create track: %w", err)
		}
		result.TracksCreated++
		if err := e.linkTrackArtists(ctx, track.ID, raw, match, source, opts, result); err != nil {
			return err
		}
	}

	start := raw.TimestampSeconds
	if start == nil {
		start = match.Parsed.OffsetSeconds
	}
	if err := e.catalog.AddMixTrack(ctx, catalog.MixTrack{
		MixID:     mixID,
		TrackID:   track.ID,
		Position:  raw.Position,
		StartTime: start,
	}); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return fmt.Errorf("position %d already linked: %w", raw.Position, err)
		}
		return fmt.Errorf("link track: %w", err)
	}
	result.TracksLinked++

	for _, alias := range match.Aliases {
		created, err := e.catalog.AddTrackAlias(ctx, catalog.TrackAlias{
			TrackID:    track.ID,
			Alias:      alias,
			SourceType: catalog.AliasSourceTracklist,
			MixID:      mixID,
		})
		if err != nil {
			return fmt.Errorf("add alias: %w", err)
		}
		if created {
			result.AliasesCreated++
		}
	}
	return nil
}

func (e *Engine) linkTrackArtists(ctx context.Context, trackID int64, raw queue.RawTrack, match matcher.Result, source string, opts Options, result *Result) error {
	artists := match.Artists
	if len(artists) == 0 {
		name := strings.TrimSpace(raw.RawArtist)
		if name == "" {
			return nil
		}
		artists = []matcher.ArtistMatch{{Name: name, Role: catalog.RolePrimary, Tier: matcher.TierLow}}
	}
	for i, m := range artists {
		artist, err := e.resolveArtist(ctx, m, source, opts, result)
		if err != nil {
			return fmt.Errorf("create artist %q: %w", m.Name, err)
		}
		role := m.Role
		if role == "" {
			role = catalog.RolePrimary
		}
		if err := e.catalog.AddTrackArtist(ctx, catalog.TrackArtist{
			TrackID:  trackID,
			ArtistID: artist.ID,
			Role:     role,
			Position: i + 1,
		}); err != nil {
			return fmt.Errorf("link artist %q: %w", m.Name, err)
		}
	}
	return nil
}

func trackSurface(raw queue.RawTrack) string {
	if s := strings.TrimSpace(raw.LineText); s != "" {
		return s
	}
	if raw.RawArtist != "" {
		return raw.RawArtist + " - " + raw.RawTitle
	}
	return raw.RawTitle
}
