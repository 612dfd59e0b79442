package catalog

import (
	"context"
	"fmt"
	"time"

	"mixvault/internal/database"
)

// Store manages catalog persistence.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// New wraps an opened catalog database.
func New(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Counts returns the number of canonical entities.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRow(ctx, `SELECT
        (SELECT COUNT(1) FROM mixes),
        (SELECT COUNT(1) FROM tracks),
        (SELECT COUNT(1) FROM artists),
        (SELECT COUNT(1) FROM track_aliases)`)
	if err := row.Scan(&c.Mixes, &c.Tracks, &c.Artists, &c.Aliases); err != nil {
		return Counts{}, fmt.Errorf("catalog counts: %w", err)
	}
	return c, nil
}

func (s *Store) timestamp() string {
	return database.FormatTime(s.now())
}

func verificationArgs(v Verification) (int, any, any) {
	if !v.IsVerified {
		return 0, nil, nil
	}
	return 1, database.NullableString(v.VerifiedBy), database.NullableTime(v.VerifiedAt)
}
