package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mixvault/internal/database"
	"mixvault/internal/textutil"
)

// AddMixTrack places a track into a mix. A position already taken in the mix
// is reported as database.ErrConflict.
func (s *Store) AddMixTrack(ctx context.Context, link MixTrack) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO mix_tracks (mix_id, track_id, position, start_time) VALUES (?, ?, ?, ?)`,
		link.MixID, link.TrackID, link.Position, database.NullableInt(link.StartTime),
	); err != nil {
		return fmt.Errorf("insert mix track %d@%d: %w", link.MixID, link.Position, err)
	}
	return nil
}

// CountMixTracks returns the number of tracks linked to a mix.
func (s *Store) CountMixTracks(ctx context.Context, mixID int64) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(1) FROM mix_tracks WHERE mix_id = ?`, mixID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count mix tracks: %w", err)
	}
	return count, nil
}

// MixTracks returns the tracks of a mix ordered by position.
func (s *Store) MixTracks(ctx context.Context, mixID int64) ([]MixTrack, error) {
	rows, err := s.db.Query(ctx,
		`SELECT mix_id, track_id, position, start_time FROM mix_tracks WHERE mix_id = ? ORDER BY position`, mixID)
	if err != nil {
		return nil, fmt.Errorf("list mix tracks: %w", err)
	}
	defer rows.Close()

	var out []MixTrack
	for rows.Next() {
		var (
			link  MixTrack
			start sql.NullInt64
		)
		if err := rows.Scan(&link.MixID, &link.TrackID, &link.Position, &start); err != nil {
			return nil, fmt.Errorf("scan mix track: %w", err)
		}
		link.StartTime = database.IntPtr(start)
		out = append(out, link)
	}
	return out, rows.Err()
}

// AddTrackArtist links an artist to a track. Existing links are left untouched.
func (s *Store) AddTrackArtist(ctx context.Context, link TrackArtist) error {
	role := link.Role
	if role == "" {
		role = RolePrimary
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO track_artists (track_id, artist_id, role, position) VALUES (?, ?, ?, ?)
         ON CONFLICT(track_id, artist_id, role) DO NOTHING`,
		link.TrackID, link.ArtistID, role, link.Position,
	); err != nil {
		return fmt.Errorf("insert track artist: %w", err)
	}
	return nil
}

// TrackArtists returns the artist links of a track ordered by position.
func (s *Store) TrackArtists(ctx context.Context, trackID int64) ([]TrackArtist, error) {
	rows, err := s.db.Query(ctx,
		`SELECT track_id, artist_id, role, position FROM track_artists WHERE track_id = ? ORDER BY position, role`, trackID)
	if err != nil {
		return nil, fmt.Errorf("list track artists: %w", err)
	}
	defer rows.Close()

	var out []TrackArtist
	for rows.Next() {
		var link TrackArtist
		if err := rows.Scan(&link.TrackID, &link.ArtistID, &link.Role, &link.Position); err != nil {
			return nil, fmt.Errorf("scan track artist: %w", err)
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// AddMixArtist links a performer to a mix. Existing links are left untouched.
func (s *Store) AddMixArtist(ctx context.Context, mixID, artistID int64, role string) error {
	if role == "" {
		role = RoleDJ
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO mix_artists (mix_id, artist_id, role) VALUES (?, ?, ?)
         ON CONFLICT(mix_id, artist_id, role) DO NOTHING`,
		mixID, artistID, role,
	); err != nil {
		return fmt.Errorf("insert mix artist: %w", err)
	}
	return nil
}

// MixArtistIDs returns the artist ids linked to a mix with the given role.
func (s *Store) MixArtistIDs(ctx context.Context, mixID int64, role string) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT artist_id FROM mix_artists WHERE mix_id = ? AND role = ? ORDER BY artist_id`, mixID, role)
	if err != nil {
		return nil, fmt.Errorf("list mix artists: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddTrackAlias records an alias for a track. It reports whether a new alias
// row was written; an alias that normalizes to an existing one for the same
// track is a no-op.
func (s *Store) AddTrackAlias(ctx context.Context, alias TrackAlias) (bool, error) {
	text := strings.TrimSpace(alias.Alias)
	key := textutil.Key(text)
	if key == "" {
		return false, nil
	}
	source := alias.SourceType
	if source == "" {
		source = AliasSourceTracklist
	}
	res, err := s.db.Exec(ctx,
		`INSERT INTO track_aliases (track_id, alias, alias_key, source_type, mix_id, is_primary, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(track_id, alias_key) DO NOTHING`,
		alias.TrackID, text, key, source, database.NullableID(alias.MixID), database.BoolToInt(alias.IsPrimary), s.timestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("insert track alias: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TrackAliases returns the alias strings recorded for a track.
func (s *Store) TrackAliases(ctx context.Context, trackID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT alias FROM track_aliases WHERE track_id = ? ORDER BY id`, trackID)
	if err != nil {
		return nil, fmt.Errorf("list track aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}
