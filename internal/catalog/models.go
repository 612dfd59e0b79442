package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Association roles.
const (
	RolePrimary  = "primary"
	RoleFeatured = "featured"
	RoleDJ       = "dj"
)

// Alias source types.
const (
	AliasSourceTracklist = "tracklist"
)

// ExternalIDs maps a provider name to its provider-namespaced identifier, e.g.
// {"youtube": "yt:VIDEOID"}.
type ExternalIDs map[string]string

// Clone returns an independent copy.
func (e ExternalIDs) Clone() ExternalIDs {
	if e == nil {
		return ExternalIDs{}
	}
	return maps.Clone(e)
}

// Providers returns the provider keys in sorted order.
func (e ExternalIDs) Providers() []string {
	return slices.Sorted(maps.Keys(e))
}

func (e ExternalIDs) marshal() (string, error) {
	if len(e) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]string(e))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseExternalIDs(raw string) (ExternalIDs, error) {
	out := ExternalIDs{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), (*map[string]string)(&out)); err != nil {
		return nil, fmt.Errorf("decode external ids: %w", err)
	}
	return out, nil
}

// Verification carries the review state of a canonical entity.
type Verification struct {
	IsVerified bool
	VerifiedBy string
	VerifiedAt *time.Time
}

// Mix is a canonical mix.
type Mix struct {
	ID              int64
	Title           string
	Description     string
	AudioURL        string
	CoverURL        string
	Duration        *int
	PublishedDate   *time.Time
	ExternalIDs     ExternalIDs
	Verification    Verification
	IngestionSource string
	RawMixID        int64
	VenueID         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Track is a canonical track.
type Track struct {
	ID              int64
	Title           string
	Verification    Verification
	IngestionSource string
}

// Artist is a canonical artist.
type Artist struct {
	ID              int64
	Name            string
	Verification    Verification
	IngestionSource string
}

// TrackCandidate is a search hit with the surfaces it can be compared on.
type TrackCandidate struct {
	Track   Track
	Aliases []string
}

// MixTrack links a track into a mix at a position.
type MixTrack struct {
	MixID     int64
	TrackID   int64
	Position  int
	StartTime *int
}

// TrackArtist links an artist to a track.
type TrackArtist struct {
	TrackID  int64
	ArtistID int64
	Role     string
	Position int
}

// TrackAlias is an alternate surface string observed for a track.
type TrackAlias struct {
	TrackID    int64
	Alias      string
	SourceType string
	MixID      int64
	IsPrimary  bool
}

// MixContext is a persisted context detection for a mix.
type MixContext struct {
	ContextID   int64
	Name        string
	ContextType string
	ParentID    int64
	Confidence  float64
	ReasonCodes []string
}

// Venue is a physical venue.
type Venue struct {
	ID      int64
	Name    string
	City    string
	Country string
}

// Counts summarizes catalog size.
type Counts struct {
	Mixes   int `json:"mixes"`
	Tracks  int `json:"tracks"`
	Artists int `json:"artists"`
	Aliases int `json:"aliases"`
}
