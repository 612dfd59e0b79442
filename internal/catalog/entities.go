package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mixvault/internal/database"
	"mixvault/internal/textutil"
)

// CreateTrack inserts a canonical track.
func (s *Store) CreateTrack(ctx context.Context, title string, v Verification, source string) (*Track, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("track title is required")
	}
	verified, verifiedBy, verifiedAt := verificationArgs(v)
	id, err := s.db.Insert(ctx,
		`INSERT INTO tracks (title, title_key, is_verified, verified_by, verified_at, ingestion_source, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, textutil.Key(title), verified, verifiedBy, verifiedAt, database.NullableString(source), s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert track: %w", err)
	}
	return &Track{ID: id, Title: title, Verification: v, IngestionSource: source}, nil
}

// GetTrack fetches a track by identifier. It returns nil when no row exists.
func (s *Store) GetTrack(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, title, is_verified, verified_by, verified_at, ingestion_source FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// CreateArtist inserts a canonical artist.
func (s *Store) CreateArtist(ctx context.Context, name string, v Verification, source string) (*Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("artist name is required")
	}
	verified, verifiedBy, verifiedAt := verificationArgs(v)
	id, err := s.db.Insert(ctx,
		`INSERT INTO artists (name, name_key, is_verified, verified_by, verified_at, ingestion_source, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, textutil.Key(name), verified, verifiedBy, verifiedAt, database.NullableString(source), s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert artist: %w", err)
	}
	return &Artist{ID: id, Name: name, Verification: v, IngestionSource: source}, nil
}

// GetArtist fetches an artist by identifier. It returns nil when no row exists.
func (s *Store) GetArtist(ctx context.Context, id int64) (*Artist, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, is_verified, verified_by, verified_at, ingestion_source FROM artists WHERE id = ?`, id)
	artist, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	return artist, nil
}

// SearchTracks returns up to limit tracks whose title or any alias equals key
// or contains one of the normalized tokens, together with their aliases.
// Candidates are ranked before the limit applies: exact key matches first,
// then by the number of tokens matched, then by closeness of key length.
func (s *Store) SearchTracks(ctx context.Context, key string, tokens []string, limit int) ([]TrackCandidate, error) {
	if key == "" && len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}
	const exactExpr = `(t.title_key = ? OR EXISTS (SELECT 1 FROM track_aliases a WHERE a.track_id = t.id AND a.alias_key = ?))`
	const tokenExpr = `(t.title_key LIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM track_aliases a WHERE a.track_id = t.id AND a.alias_key LIKE ? ESCAPE '\'))`

	hits := make([]string, 0, len(tokens))
	hitArgs := make([]any, 0, len(tokens)*2)
	for _, token := range tokens {
		pattern := likePattern(token)
		hits = append(hits, tokenExpr)
		hitArgs = append(hitArgs, pattern, pattern)
	}
	where := append([]string{exactExpr}, hits...)
	hitCount := "0"
	if len(hits) > 0 {
		hitCount = strings.Join(hits, " + ")
	}

	args := make([]any, 0, 2*len(hitArgs)+6)
	args = append(args, key, key)
	args = append(args, hitArgs...)
	args = append(args, key, key)
	args = append(args, hitArgs...)
	args = append(args, utf8.RuneCountInString(key), limit)

	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.title, t.is_verified, t.verified_by, t.verified_at, t.ingestion_source
         FROM tracks t WHERE `+strings.Join(where, " OR ")+`
         ORDER BY `+exactExpr+` DESC, (`+hitCount+`) DESC, ABS(LENGTH(t.title_key) - ?), t.id
         LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	var candidates []TrackCandidate
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan track: %w", err)
		}
		candidates = append(candidates, TrackCandidate{Track: *track})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		aliases, err := s.TrackAliases(ctx, candidates[i].Track.ID)
		if err != nil {
			return nil, err
		}
		candidates[i].Aliases = aliases
	}
	return candidates, nil
}

// SearchArtists returns up to limit artists whose key equals key, followed by
// artists whose name contains the most normalized tokens. Exact key matches
// are looked up separately so common tokens cannot crowd them out.
func (s *Store) SearchArtists(ctx context.Context, key string, tokens []string, limit int) ([]Artist, error) {
	if key == "" && len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}
	const columns = `id, name, is_verified, verified_by, verified_at, ingestion_source`

	var artists []Artist
	seen := map[int64]struct{}{}
	collect := func(query string, args ...any) error {
		rows, err := s.db.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("search artists: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			artist, err := scanArtist(rows)
			if err != nil {
				return fmt.Errorf("scan artist: %w", err)
			}
			if _, dup := seen[artist.ID]; dup {
				continue
			}
			seen[artist.ID] = struct{}{}
			artists = append(artists, *artist)
		}
		return rows.Err()
	}

	if key != "" {
		if err := collect(`SELECT `+columns+` FROM artists WHERE name_key = ? ORDER BY id LIMIT ?`, key, limit); err != nil {
			return nil, err
		}
	}
	if len(tokens) == 0 || len(artists) >= limit {
		return artists, nil
	}

	hits := make([]string, 0, len(tokens))
	hitArgs := make([]any, 0, len(tokens))
	for _, token := range tokens {
		hits = append(hits, `(name_key LIKE ? ESCAPE '\')`)
		hitArgs = append(hitArgs, likePattern(token))
	}
	args := make([]any, 0, 2*len(hitArgs)+2)
	args = append(args, hitArgs...)
	args = append(args, hitArgs...)
	args = append(args, utf8.RuneCountInString(key), limit)
	if err := collect(
		`SELECT `+columns+` FROM artists WHERE `+strings.Join(hits, " OR ")+`
         ORDER BY (`+strings.Join(hits, " + ")+`) DESC, ABS(LENGTH(name_key) - ?), id
         LIMIT ?`,
		args...,
	); err != nil {
		return nil, err
	}
	if len(artists) > limit {
		artists = artists[:limit]
	}
	return artists, nil
}

func likePattern(token string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(token)
	return "%" + escaped + "%"
}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		track      Track
		verified   int
		verifiedBy sql.NullString
		verifiedAt sql.NullString
		source     sql.NullString
	)
	if err := scanner.Scan(&track.ID, &track.Title, &verified, &verifiedBy, &verifiedAt, &source); err != nil {
		return nil, err
	}
	track.Verification = Verification{IsVerified: verified != 0, VerifiedBy: verifiedBy.String, VerifiedAt: database.TimePtr(verifiedAt)}
	track.IngestionSource = source.String
	return &track, nil
}

func scanArtist(scanner interface{ Scan(dest ...any) error }) (*Artist, error) {
	var (
		artist     Artist
		verified   int
		verifiedBy sql.NullString
		verifiedAt sql.NullString
		source     sql.NullString
	)
	if err := scanner.Scan(&artist.ID, &artist.Name, &verified, &verifiedBy, &verifiedAt, &source); err != nil {
		return nil, err
	}
	artist.Verification = Verification{IsVerified: verified != 0, VerifiedBy: verifiedBy.String, VerifiedAt: database.TimePtr(verifiedAt)}
	artist.IngestionSource = source.String
	return &artist, nil
}
