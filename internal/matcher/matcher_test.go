package matcher_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mixvault/internal/catalog"
	"mixvault/internal/matcher"
	"mixvault/internal/textutil"
)

type fakeCatalog struct {
	tracks    []catalog.TrackCandidate
	artists   []catalog.Artist
	searchErr error
}

func (f *fakeCatalog) SearchTracks(_ context.Context, _ string, _ []string, limit int) ([]catalog.TrackCandidate, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit > 0 && len(f.tracks) > limit {
		return f.tracks[:limit], nil
	}
	return f.tracks, nil
}

func (f *fakeCatalog) SearchArtists(_ context.Context, key string, tokens []string, limit int) ([]catalog.Artist, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []catalog.Artist
	for _, a := range f.artists {
		k := textutil.Key(a.Name)
		if k == key {
			out = append(out, a)
			continue
		}
		for _, token := range tokens {
			if strings.Contains(k, token) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func fixedScorer(score float64) matcher.Scorer {
	return func(a, b string) float64 {
		if textutil.Normalize(a) == "" || textutil.Normalize(b) == "" {
			return 0
		}
		return score
	}
}

func TestTrackThresholdBoundary(t *testing.T) {
	cat := &fakeCatalog{tracks: []catalog.TrackCandidate{{Track: catalog.Track{ID: 7, Title: "Opus"}}}}
	tests := []struct {
		name  string
		score float64
		tier  matcher.Tier
		high  bool
	}{
		{"exactly ninety", 0.90, matcher.TierHigh, true},
		{"just below ninety", 0.899, matcher.TierMedium, false},
		{"medium floor", 0.75, matcher.TierMedium, false},
		{"below medium", 0.7499, matcher.TierLow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := matcher.New(cat, matcher.DefaultThresholds(), matcher.WithScorer(fixedScorer(tt.score)))
			res, err := m.MatchTrack(context.Background(), matcher.Candidate{Line: "Eric Prydz - Opus"})
			if err != nil {
				t.Fatalf("MatchTrack failed: %v", err)
			}
			if res.Track.Tier != tt.tier || res.Track.IsHighConfidence != tt.high {
				t.Fatalf("tier=%s high=%v, want %s %v", res.Track.Tier, res.Track.IsHighConfidence, tt.tier, tt.high)
			}
			if res.Track.Track == nil || res.Track.Track.ID != 7 {
				t.Fatalf("expected best candidate to be reported, got %#v", res.Track.Track)
			}
		})
	}
}

func TestTrackThresholdWithRealSimilarity(t *testing.T) {
	cat := &fakeCatalog{tracks: []catalog.TrackCandidate{{Track: catalog.Track{ID: 1, Title: "abcdefghij"}}}}
	m := matcher.New(cat, matcher.DefaultThresholds())

	res, err := m.MatchTrack(context.Background(), matcher.Candidate{Title: "abcdefghiX"})
	if err != nil {
		t.Fatalf("MatchTrack failed: %v", err)
	}
	if !res.Track.IsHighConfidence {
		t.Fatalf("expected one edit in ten characters to be high confidence, got %+v", res.Track)
	}
}

func TestArtistThresholdBoundary(t *testing.T) {
	cat := &fakeCatalog{artists: []catalog.Artist{{ID: 3, Name: "Bicep"}}}
	tests := []struct {
		score float64
		high  bool
		tier  matcher.Tier
	}{
		{0.85, true, matcher.TierHigh},
		{0.849, false, matcher.TierMedium},
		{0.69, false, matcher.TierLow},
	}
	for _, tt := range tests {
		m := matcher.New(cat, matcher.DefaultThresholds(), matcher.WithScorer(fixedScorer(tt.score)))
		got, err := m.FindMatchingArtists(context.Background(), []string{"Bicep"})
		if err != nil {
			t.Fatalf("FindMatchingArtists failed: %v", err)
		}
		if len(got) != 1 || got[0].IsHighConfidence != tt.high || got[0].Tier != tt.tier {
			t.Fatalf("score %v: got %+v", tt.score, got)
		}
	}
}

func TestMatchTrackEmptyLineIsLowNoMatch(t *testing.T) {
	m := matcher.New(&fakeCatalog{}, matcher.DefaultThresholds())
	for _, line := range []string{"", "   ", "01.", "!!!"} {
		res, err := m.MatchTrack(context.Background(), matcher.Candidate{Line: line})
		if err != nil {
			t.Fatalf("MatchTrack(%q) returned error: %v", line, err)
		}
		if res.Track.Track != nil || res.Track.Tier != matcher.TierLow || res.Track.IsHighConfidence {
			t.Fatalf("MatchTrack(%q) = %+v, want low no-match", line, res.Track)
		}
		if len(res.Artists) != 0 {
			t.Fatalf("expected no artists for %q", line)
		}
	}
}

func TestMatchTrackSurfacesAliasForReusedTrack(t *testing.T) {
	cat := &fakeCatalog{
		tracks:  []catalog.TrackCandidate{{Track: catalog.Track{ID: 9, Title: "One More Time"}}},
		artists: []catalog.Artist{{ID: 4, Name: "Daft Punk"}},
	}
	m := matcher.New(cat, matcher.DefaultThresholds())

	res, err := m.MatchTrack(context.Background(), matcher.Candidate{Line: "[00:03:10] Daft Punk - One More Time (feat. Romanthony)"})
	if err != nil {
		t.Fatalf("MatchTrack failed: %v", err)
	}
	if !res.Track.IsHighConfidence || res.Track.Track.ID != 9 {
		t.Fatalf("expected exact title to be reused, got %+v", res.Track)
	}
	if len(res.Aliases) != 1 || res.Aliases[0] != "Daft Punk - One More Time (feat. Romanthony)" {
		t.Fatalf("unexpected aliases %v", res.Aliases)
	}
	if len(res.Artists) != 2 {
		t.Fatalf("expected primary and featured artist outcomes, got %+v", res.Artists)
	}
	if res.Artists[0].Role != catalog.RolePrimary || !res.Artists[0].IsHighConfidence || res.Artists[0].Artist.ID != 4 {
		t.Fatalf("unexpected primary artist outcome %+v", res.Artists[0])
	}
	if res.Artists[1].Role != catalog.RoleFeatured || res.Artists[1].Name != "Romanthony" || res.Artists[1].Artist != nil {
		t.Fatalf("unexpected featured artist outcome %+v", res.Artists[1])
	}
	if res.Parsed.OffsetSeconds == nil || *res.Parsed.OffsetSeconds != 190 {
		t.Fatalf("expected parsed offset 190, got %v", res.Parsed.OffsetSeconds)
	}
}

func TestMatchTrackUsesAliasSurfaces(t *testing.T) {
	cat := &fakeCatalog{tracks: []catalog.TrackCandidate{{
		Track:   catalog.Track{ID: 5, Title: "Strobe"},
		Aliases: []string{"deadmau5 - Strobe (Club Edit)"},
	}}}
	m := matcher.New(cat, matcher.DefaultThresholds())

	res, err := m.MatchTrack(context.Background(), matcher.Candidate{Title: "Strobe (Club Edit)", Artist: "deadmau5"})
	if err != nil {
		t.Fatalf("MatchTrack failed: %v", err)
	}
	if !res.Track.IsHighConfidence || res.Track.Track.ID != 5 {
		t.Fatalf("expected alias surface to yield high confidence, got %+v", res.Track)
	}
	if len(res.Aliases) != 1 || res.Aliases[0] != "deadmau5 - Strobe (Club Edit)" {
		t.Fatalf("expected composite alias, got %v", res.Aliases)
	}
}

func TestMatchTrackNoCandidatesCreates(t *testing.T) {
	m := matcher.New(&fakeCatalog{}, matcher.DefaultThresholds())
	res, err := m.MatchTrack(context.Background(), matcher.Candidate{Line: "Unknown Artist - Unreleased ID"})
	if err != nil {
		t.Fatalf("MatchTrack failed: %v", err)
	}
	if res.Track.Track != nil || res.Track.Tier != matcher.TierLow {
		t.Fatalf("expected no match, got %+v", res.Track)
	}
	if len(res.Artists) != 1 || res.Artists[0].Artist != nil || res.Artists[0].Name != "Unknown Artist" {
		t.Fatalf("expected unmatched artist outcome, got %+v", res.Artists)
	}
}

func TestMatchTrackPropagatesReadErrors(t *testing.T) {
	boom := errors.New("db closed")
	m := matcher.New(&fakeCatalog{searchErr: boom}, matcher.DefaultThresholds())
	if _, err := m.MatchTrack(context.Background(), matcher.Candidate{Line: "A - B title"}); !errors.Is(err, boom) {
		t.Fatalf("expected read error to propagate, got %v", err)
	}
}
