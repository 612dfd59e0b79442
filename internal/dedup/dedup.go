package dedup

import (
	"context"
	"fmt"

	"mixvault/internal/catalog"
)

// MixFinder looks up a catalog mix by shared external identifiers.
type MixFinder interface {
	FindMixByExternalIDs(ctx context.Context, ids catalog.ExternalIDs) (*catalog.Mix, error)
}

// Result reports the outcome of a duplicate check.
type Result struct {
	IsDuplicate   bool
	ExistingMixID int64
	Existing      *catalog.Mix
}

// Detector runs duplicate checks against a catalog.
type Detector struct {
	finder MixFinder
}

// NewDetector constructs a Detector.
func NewDetector(finder MixFinder) *Detector {
	return &Detector{finder: finder}
}

// CheckForDuplicateMix reports whether a catalog mix already carries any of
// ids. An empty identifier set is never a duplicate.
func (d *Detector) CheckForDuplicateMix(ctx context.Context, ids catalog.ExternalIDs) (Result, error) {
	if len(ids) == 0 {
		return Result{}, nil
	}
	mix, err := d.finder.FindMixByExternalIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("check duplicate mix: %w", err)
	}
	if mix == nil {
		return Result{}, nil
	}
	return Result{IsDuplicate: true, ExistingMixID: mix.ID, Existing: mix}, nil
}

// MergeExternalIDs returns a new set holding every key of both inputs. When
// both define a provider the existing value is kept.
func MergeExternalIDs(existing, incoming catalog.ExternalIDs) catalog.ExternalIDs {
	out := existing.Clone()
	for provider, id := range incoming {
		if _, ok := out[provider]; ok {
			continue
		}
		out[provider] = id
	}
	return out
}

// MergeScalars fills empty scalar fields of existing from incoming and
// reports whether anything changed. Non-empty existing values always win.
func MergeScalars(existing *catalog.Mix, incoming catalog.Mix) bool {
	if existing == nil {
		return false
	}
	changed := false
	fillString := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fillString(&existing.Description, incoming.Description)
	fillString(&existing.AudioURL, incoming.AudioURL)
	fillString(&existing.CoverURL, incoming.CoverURL)
	if existing.Duration == nil && incoming.Duration != nil {
		d := *incoming.Duration
		existing.Duration = &d
		changed = true
	}
	if existing.PublishedDate == nil && incoming.PublishedDate != nil {
		p := *incoming.PublishedDate
		existing.PublishedDate = &p
		changed = true
	}
	return changed
}

// Merge folds incoming into existing: identifiers are unioned and empty
// scalars filled. It reports whether existing needs to be persisted.
func Merge(existing *catalog.Mix, incoming catalog.Mix) bool {
	if existing == nil {
		return false
	}
	merged := MergeExternalIDs(existing.ExternalIDs, incoming.ExternalIDs)
	idsChanged := len(merged) != len(existing.ExternalIDs)
	existing.ExternalIDs = merged
	scalarsChanged := MergeScalars(existing, incoming)
	return idsChanged || scalarsChanged
}
