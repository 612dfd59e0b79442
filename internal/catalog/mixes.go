package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mixvault/internal/database"
)

const mixColumns = "id, title, description, audio_url, cover_url, duration, published_date, external_ids, is_verified, verified_by, verified_at, ingestion_source, raw_mix_id, venue_id, created_at, updated_at"

// FindMixByExternalIDs returns the oldest mix sharing at least one
// (provider, id) pair with ids, or nil when none does.
func (s *Store) FindMixByExternalIDs(ctx context.Context, ids ExternalIDs) (*Mix, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids)*2)
	for _, provider := range ids.Providers() {
		clauses = append(clauses, "(je.key = ? AND je.value = ?)")
		args = append(args, provider, ids[provider])
	}
	query := `SELECT ` + prefixColumns("m", mixColumns) + `
        FROM mixes m, json_each(m.external_ids) je
        WHERE ` + strings.Join(clauses, " OR ") + `
        ORDER BY m.id LIMIT 1`
	mix, err := scanMix(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find mix by external ids: %w", err)
	}
	return mix, nil
}

// GetMix fetches a mix by identifier. It returns nil when no row exists.
func (s *Store) GetMix(ctx context.Context, id int64) (*Mix, error) {
	mix, err := scanMix(s.db.QueryRow(ctx, `SELECT `+mixColumns+` FROM mixes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mix: %w", err)
	}
	return mix, nil
}

// CreateMix inserts mix and fills in its identifier and timestamps.
func (s *Store) CreateMix(ctx context.Context, mix *Mix) error {
	if mix == nil {
		return errors.New("mix is nil")
	}
	if strings.TrimSpace(mix.Title) == "" {
		return errors.New("mix title is required")
	}
	externalIDs, err := mix.ExternalIDs.marshal()
	if err != nil {
		return fmt.Errorf("encode external ids: %w", err)
	}
	verified, verifiedBy, verifiedAt := verificationArgs(mix.Verification)
	now := s.now()
	ts := database.FormatTime(now)

	id, err := s.db.Insert(ctx,
		`INSERT INTO mixes (
            title, description, audio_url, cover_url, duration, published_date, external_ids,
            is_verified, verified_by, verified_at, ingestion_source, raw_mix_id, venue_id,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mix.Title,
		database.NullableString(mix.Description),
		database.NullableString(mix.AudioURL),
		database.NullableString(mix.CoverURL),
		database.NullableInt(mix.Duration),
		database.NullableTime(mix.PublishedDate),
		externalIDs,
		verified, verifiedBy, verifiedAt,
		database.NullableString(mix.IngestionSource),
		database.NullableID(mix.RawMixID),
		database.NullableID(mix.VenueID),
		ts, ts,
	)
	if err != nil {
		return fmt.Errorf("insert mix: %w", err)
	}
	mix.ID = id
	mix.CreatedAt = now
	mix.UpdatedAt = now
	if mix.ExternalIDs == nil {
		mix.ExternalIDs = ExternalIDs{}
	}
	return nil
}

// UpdateMix persists the mutable scalar fields and external ids of mix.
func (s *Store) UpdateMix(ctx context.Context, mix *Mix) error {
	if mix == nil {
		return errors.New("mix is nil")
	}
	externalIDs, err := mix.ExternalIDs.marshal()
	if err != nil {
		return fmt.Errorf("encode external ids: %w", err)
	}
	now := s.now()
	res, err := s.db.Exec(ctx,
		`UPDATE mixes
         SET description = ?, audio_url = ?, cover_url = ?, duration = ?, published_date = ?,
             external_ids = ?, updated_at = ?
         WHERE id = ?`,
		database.NullableString(mix.Description),
		database.NullableString(mix.AudioURL),
		database.NullableString(mix.CoverURL),
		database.NullableInt(mix.Duration),
		database.NullableTime(mix.PublishedDate),
		externalIDs,
		database.FormatTime(now),
		mix.ID,
	)
	if err != nil {
		return fmt.Errorf("update mix %d: %w", mix.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update mix %d: no such mix", mix.ID)
	}
	mix.UpdatedAt = now
	return nil
}

// ListMixes returns the most recent mixes.
func (s *Store) ListMixes(ctx context.Context, limit int) ([]*Mix, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+mixColumns+` FROM mixes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list mixes: %w", err)
	}
	defer rows.Close()

	var mixes []*Mix
	for rows.Next() {
		mix, err := scanMix(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mix: %w", err)
		}
		mixes = append(mixes, mix)
	}
	return mixes, rows.Err()
}

func scanMix(scanner interface{ Scan(dest ...any) error }) (*Mix, error) {
	var (
		mix         Mix
		description sql.NullString
		audioURL    sql.NullString
		coverURL    sql.NullString
		duration    sql.NullInt64
		published   sql.NullString
		externalIDs sql.NullString
		verified    int
		verifiedBy  sql.NullString
		verifiedAt  sql.NullString
		source      sql.NullString
		rawMixID    sql.NullInt64
		venueID     sql.NullInt64
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&mix.ID,
		&mix.Title,
		&description,
		&audioURL,
		&coverURL,
		&duration,
		&published,
		&externalIDs,
		&verified,
		&verifiedBy,
		&verifiedAt,
		&source,
		&rawMixID,
		&venueID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	mix.Description = description.String
	mix.AudioURL = audioURL.String
	mix.CoverURL = coverURL.String
	mix.Duration = database.IntPtr(duration)
	mix.PublishedDate = database.TimePtr(published)
	ids, err := parseExternalIDs(externalIDs.String)
	if err != nil {
		return nil, fmt.Errorf("mix %d: %w", mix.ID, err)
	}
	mix.ExternalIDs = ids
	mix.Verification = Verification{
		IsVerified: verified != 0,
		VerifiedBy: verifiedBy.String,
		VerifiedAt: database.TimePtr(verifiedAt),
	}
	mix.IngestionSource = source.String
	mix.RawMixID = rawMixID.Int64
	mix.VenueID = venueID.Int64
	if created, err := database.ParseTime(createdRaw.String); err == nil {
		mix.CreatedAt = created
	}
	if updated, err := database.ParseTime(updatedRaw.String); err == nil {
		mix.UpdatedAt = updated
	}
	return &mix, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
