package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"mixvault/internal/database"
	"mixvault/internal/logging"
)

// WriteEvent appends an ingestion event. It satisfies logging.SinkWriter.
func (s *Store) WriteEvent(ctx context.Context, evt logging.Event) error {
	ts := s.now()
	if !evt.Time.IsZero() {
		ts = evt.Time
	}
	level := evt.Level
	if level == "" {
		level = "info"
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO ingestion_logs (run_id, raw_mix_id, level, event, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		database.NullableString(evt.RunID),
		database.NullableID(evt.RawMixID),
		level,
		evt.Event,
		database.NullableString(evt.Message),
		database.FormatTime(ts),
	); err != nil {
		return fmt.Errorf("insert ingestion log: %w", err)
	}
	return nil
}

// RecentEvents returns the newest ingestion events, optionally scoped to a run.
func (s *Store) RecentEvents(ctx context.Context, runID string, limit int) ([]logging.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT run_id, raw_mix_id, level, event, message, created_at FROM ingestion_logs`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingestion logs: %w", err)
	}
	defer rows.Close()

	var events []logging.Event
	for rows.Next() {
		var (
			evt      logging.Event
			run      sql.NullString
			rawMixID sql.NullInt64
			message  sql.NullString
			created  string
		)
		if err := rows.Scan(&run, &rawMixID, &evt.Level, &evt.Event, &message, &created); err != nil {
			return nil, fmt.Errorf("scan ingestion log: %w", err)
		}
		evt.RunID = run.String
		evt.RawMixID = rawMixID.Int64
		evt.Message = message.String
		if t, err := database.ParseTime(created); err == nil {
			evt.Time = t
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}
