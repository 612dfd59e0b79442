package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UpsertContext returns the id of the (contextType, name) context, creating it
// when missing. A parent is only recorded when none was set before.
func (s *Store) UpsertContext(ctx context.Context, name, contextType string, parentID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || contextType == "" {
		return 0, errors.New("context name and type are required")
	}
	var parent any
	if parentID > 0 {
		parent = parentID
	}
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO contexts (name, context_type, parent_id, created_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(context_type, name) DO UPDATE SET parent_id = COALESCE(contexts.parent_id, excluded.parent_id)
         RETURNING id`,
		name, contextType, parent, s.timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert context %s/%s: %w", contextType, name, err)
	}
	return id, nil
}

// LinkMixContext attaches a context to a mix. Re-linking keeps the higher
// confidence and its reason codes.
func (s *Store) LinkMixContext(ctx context.Context, mixID, contextID int64, confidence float64, reasons []string) error {
	if reasons == nil {
		reasons = []string{}
	}
	encoded, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("encode reason codes: %w", err)
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO mix_contexts (mix_id, context_id, confidence, reason_codes) VALUES (?, ?, ?, ?)
         ON CONFLICT(mix_id, context_id) DO UPDATE SET
             confidence = MAX(mix_contexts.confidence, excluded.confidence),
             reason_codes = CASE WHEN excluded.confidence > mix_contexts.confidence
                 THEN excluded.reason_codes ELSE mix_contexts.reason_codes END`,
		mixID, contextID, confidence, string(encoded),
	); err != nil {
		return fmt.Errorf("link mix context: %w", err)
	}
	return nil
}

// MixContexts returns the contexts linked to a mix, highest confidence first.
func (s *Store) MixContexts(ctx context.Context, mixID int64) ([]MixContext, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.name, c.context_type, c.parent_id, mc.confidence, mc.reason_codes
         FROM mix_contexts mc JOIN contexts c ON c.id = mc.context_id
         WHERE mc.mix_id = ? ORDER BY mc.confidence DESC, c.id`,
		mixID,
	)
	if err != nil {
		return nil, fmt.Errorf("list mix contexts: %w", err)
	}
	defer rows.Close()

	var out []MixContext
	for rows.Next() {
		var (
			mc      MixContext
			parent  sql.NullInt64
			reasons string
		)
		if err := rows.Scan(&mc.ContextID, &mc.Name, &mc.ContextType, &parent, &mc.Confidence, &reasons); err != nil {
			return nil, fmt.Errorf("scan mix context: %w", err)
		}
		mc.ParentID = parent.Int64
		_ = json.Unmarshal([]byte(reasons), &mc.ReasonCodes)
		out = append(out, mc)
	}
	return out, rows.Err()
}

// UpsertVenue returns the id of the venue, creating it when missing.
func (s *Store) UpsertVenue(ctx context.Context, venue Venue) (int64, error) {
	name := strings.TrimSpace(venue.Name)
	if name == "" {
		return 0, errors.New("venue name is required")
	}
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO venues (name, city, country, created_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(name, city, country) DO UPDATE SET name = excluded.name
         RETURNING id`,
		name, strings.TrimSpace(venue.City), strings.TrimSpace(venue.Country), s.timestamp(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert venue %s: %w", name, err)
	}
	return id, nil
}

// SetMixVenue records the venue of a mix unless one is already set. It reports
// whether the mix was updated.
func (s *Store) SetMixVenue(ctx context.Context, mixID, venueID int64) (bool, error) {
	res, err := s.db.Exec(ctx,
		`UPDATE mixes SET venue_id = ?, updated_at = ? WHERE id = ? AND venue_id IS NULL`,
		venueID, s.timestamp(), mixID,
	)
	if err != nil {
		return false, fmt.Errorf("set mix venue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetVenue fetches a venue by identifier. It returns nil when no row exists.
func (s *Store) GetVenue(ctx context.Context, id int64) (*Venue, error) {
	var v Venue
	err := s.db.QueryRow(ctx, `SELECT id, name, city, country FROM venues WHERE id = ?`, id).
		Scan(&v.ID, &v.Name, &v.City, &v.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return &v, nil
}
