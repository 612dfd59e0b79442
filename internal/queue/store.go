package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mixvault/internal/database"
)

// ErrInvalidTransition is returned when a status change is not allowed from the
// raw mix's current status.
var ErrInvalidTransition = errors.New("invalid raw mix status transition")

// Store manages raw mix persistence.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// New wraps an opened catalog database.
func New(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Insert stages a raw mix and its tracklist lines in one transaction.
func (s *Store) Insert(ctx context.Context, in NewRawMix) (*RawMix, error) {
	if strings.TrimSpace(in.RawTitle) == "" {
		return nil, errors.New("raw mix title is required")
	}
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return nil, errors.New("raw mix provider is required")
	}
	timestamp := database.FormatTime(s.now())

	var id int64
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO raw_mixes (
                raw_title, raw_description, source_url, provider, external_id, artwork_url,
                duration_seconds, raw_artist, channel_name, channel_id, uploaded_at,
                status, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			strings.TrimSpace(in.RawTitle),
			database.NullableString(in.RawDescription),
			database.NullableString(in.SourceURL),
			provider,
			database.NullableString(strings.TrimSpace(in.ExternalID)),
			database.NullableString(in.ArtworkURL),
			database.NullableInt(in.DurationSeconds),
			database.NullableString(strings.TrimSpace(in.RawArtist)),
			database.NullableString(in.ChannelName),
			database.NullableString(in.ChannelID),
			database.NullableTime(in.UploadedAt),
			StatusPending,
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert raw mix: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for i, track := range in.Tracks {
			position := track.Position
			if position <= 0 {
				position = i + 1
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO raw_tracks (raw_mix_id, position, raw_title, raw_artist, line_text, timestamp_seconds)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				id,
				position,
				database.NullableString(strings.TrimSpace(track.RawTitle)),
				database.NullableString(strings.TrimSpace(track.RawArtist)),
				database.NullableString(track.LineText),
				database.NullableInt(track.TimestampSeconds),
			); err != nil {
				return fmt.Errorf("insert raw track %d: %w", position, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a raw mix by identifier. It returns nil when no row exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*RawMix, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rawMixColumns+` FROM raw_mixes WHERE id = ?`, id)
	mix, err := scanRawMix(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get raw mix: %w", err)
	}
	return mix, nil
}

// Tracks returns the tracklist lines of a raw mix ordered by position.
func (s *Store) Tracks(ctx context.Context, rawMixID int64) ([]RawTrack, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, raw_mix_id, position, raw_title, raw_artist, line_text, timestamp_seconds
         FROM raw_tracks WHERE raw_mix_id = ? ORDER BY position, id`,
		rawMixID,
	)
	if err != nil {
		return nil, fmt.Errorf("list raw tracks: %w", err)
	}
	defer rows.Close()

	var tracks []RawTrack
	for rows.Next() {
		var (
			track     RawTrack
			rawTitle  sql.NullString
			rawArtist sql.NullString
			lineText  sql.NullString
			offset    sql.NullInt64
		)
		if err := rows.Scan(&track.ID, &track.RawMixID, &track.Position, &rawTitle, &rawArtist, &lineText, &offset); err != nil {
			return nil, fmt.Errorf("scan raw track: %w", err)
		}
		track.RawTitle = rawTitle.String
		track.RawArtist = rawArtist.String
		track.LineText = lineText.String
		track.TimestampSeconds = database.IntPtr(offset)
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// List returns raw mixes filtered by the provided statuses (all when empty),
// newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*RawMix, error) {
	query := `SELECT ` + rawMixColumns + ` FROM raw_mixes`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + database.Placeholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return s.queryRawMixes(ctx, query, args...)
}

// PendingBatch returns up to limit pending raw mixes, oldest first.
func (s *Store) PendingBatch(ctx context.Context, limit int) ([]*RawMix, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.queryRawMixes(ctx,
		`SELECT `+rawMixColumns+` FROM raw_mixes WHERE status = ? ORDER BY created_at, id LIMIT ?`,
		StatusPending, limit,
	)
}

func (s *Store) queryRawMixes(ctx context.Context, query string, args ...any) ([]*RawMix, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query raw mixes: %w", err)
	}
	defer rows.Close()

	var mixes []*RawMix
	for rows.Next() {
		mix, err := scanRawMix(rows)
		if err != nil {
			return nil, fmt.Errorf("scan raw mix: %w", err)
		}
		mixes = append(mixes, mix)
	}
	return mixes, rows.Err()
}
