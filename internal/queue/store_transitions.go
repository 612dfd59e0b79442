package queue

import (
	"context"
	"fmt"
	"time"

	"mixvault/internal/database"
)

// MarkProcessing moves a pending raw mix to processing. Re-entering processing
// is allowed so a mix left stuck by a crash can be driven again explicitly.
func (s *Store) MarkProcessing(ctx context.Context, id int64) error {
	timestamp := database.FormatTime(s.now())
	return s.transition(ctx, id, StatusProcessing,
		`UPDATE raw_mixes SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusProcessing, timestamp, id, StatusPending, StatusProcessing,
	)
}

// MarkCanonicalized records the canonical mix a raw mix produced.
func (s *Store) MarkCanonicalized(ctx context.Context, id, mixID int64) error {
	timestamp := database.FormatTime(s.now())
	return s.transition(ctx, id, StatusCanonicalized,
		`UPDATE raw_mixes SET status = ?, canonicalized_mix_id = ?, error_message = NULL,
             processed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCanonicalized, mixID, timestamp, timestamp, id, StatusProcessing,
	)
}

// MarkFailed records a mix-level failure.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	timestamp := database.FormatTime(s.now())
	return s.transition(ctx, id, StatusFailed,
		`UPDATE raw_mixes SET status = ?, error_message = ?, processed_at = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, database.NullableString(message), timestamp, timestamp, id, StatusPending, StatusProcessing,
	)
}

// RetryFailed resets failed raw mixes last updated within maxAge back to
// pending and returns how many were reset. A non-positive maxAge resets every
// failed raw mix.
func (s *Store) RetryFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	query := `UPDATE raw_mixes SET status = ?, error_message = NULL, processed_at = NULL, updated_at = ?
              WHERE status = ?`
	now := s.now()
	args := []any{StatusPending, database.FormatTime(now), StatusFailed}
	if maxAge > 0 {
		query += ` AND updated_at >= ?`
		args = append(args, database.FormatTime(now.Add(-maxAge)))
	}
	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed raw mixes: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) transition(ctx context.Context, id int64, to Status, query string, args ...any) error {
	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark raw mix %d %s: %w", id, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		if current == nil {
			return fmt.Errorf("raw mix %d not found", id)
		}
		return fmt.Errorf("%w: %s -> %s for raw mix %d", ErrInvalidTransition, current.Status, to, id)
	}
	return nil
}
