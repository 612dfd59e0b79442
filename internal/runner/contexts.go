package runner

import (
	"context"

	"mixvault/internal/catalog"
	"mixvault/internal/contextdetect"
	"mixvault/internal/logging"
	"mixvault/internal/queue"
)

// persistContexts stores what the detector finds for raw on mixID and
// returns how many contexts were linked. Failures are logged and skipped.
func (r *Runner) persistContexts(ctx context.Context, mixID int64, raw *queue.RawMix) int {
	if r.deps.Detector == nil || !r.cfg.Canonicalize.DetectContexts || mixID == 0 {
		return 0
	}
	logger := logging.WithContext(ctx, r.logger)
	warn := func(msg string, err error, name string) {
		logging.WarnWithContext(logger, msg, "context_persist_failed",
			logging.Int64(logging.FieldMixID, mixID),
			logging.String("name", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "contexts are best effort; rerun detection later"),
		)
	}

	result := r.deps.Detector.Detect(contextdetect.Input{
		Title:       raw.RawTitle,
		Description: raw.RawDescription,
		ChannelName: raw.ChannelName,
		ChannelID:   raw.ChannelID,
	})

	linked := 0
	for _, c := range result.Contexts {
		logger.Debug("context detected",
			logging.String("name", c.Name),
			logging.String("type", c.Type),
			logging.Float64("confidence", c.Confidence),
			logging.Strings("reasons", c.ReasonCodes),
		)
		var parentID int64
		if c.Parent != "" {
			id, err := r.deps.Contexts.UpsertContext(ctx, c.Parent, contextdetect.TypePublisher, 0)
			if err != nil {
				warn("context parent upsert failed", err, c.Parent)
			} else {
				parentID = id
			}
		}
		id, err := r.deps.Contexts.UpsertContext(ctx, c.Name, c.Type, parentID)
		if err != nil {
			warn("context upsert failed", err, c.Name)
			continue
		}
		if err := r.deps.Contexts.LinkMixContext(ctx, mixID, id, c.Confidence, c.ReasonCodes); err != nil {
			warn("context link failed", err, c.Name)
			continue
		}
		linked++
	}

	if v := result.Venue; v != nil {
		venueID, err := r.deps.Contexts.UpsertVenue(ctx, catalog.Venue{Name: v.Name, City: v.City, Country: v.Country})
		if err != nil {
			warn("venue upsert failed", err, v.Name)
		} else if _, err := r.deps.Contexts.SetMixVenue(ctx, mixID, venueID); err != nil {
			warn("venue link failed", err, v.Name)
		}
	}

	if linked > 0 || result.Venue != nil {
		logger.Debug("contexts detected",
			logging.Int64(logging.FieldMixID, mixID),
			logging.Int("contexts", linked),
			logging.Bool("venue", result.Venue != nil),
		)
	}
	return linked
}
