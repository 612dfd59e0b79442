package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mixvault/internal/catalog"
	"mixvault/internal/config"
	"mixvault/internal/logging"
	"mixvault/internal/textutil"
)

// Tier classifies a match score.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const scoreEpsilon = 1e-9

// Thresholds are the minimum similarities for each tier.
type Thresholds struct {
	TrackHigh      float64
	TrackMedium    float64
	ArtistHigh     float64
	ArtistMedium   float64
	CandidateLimit int
}

// ThresholdsFromConfig converts matcher configuration.
func ThresholdsFromConfig(cfg config.Matcher) Thresholds {
	return Thresholds{
		TrackHigh:      cfg.TrackHigh,
		TrackMedium:    cfg.TrackMedium,
		ArtistHigh:     cfg.ArtistHigh,
		ArtistMedium:   cfg.ArtistMedium,
		CandidateLimit: cfg.CandidateLimit,
	}
}

// DefaultThresholds returns the configured defaults.
func DefaultThresholds() Thresholds {
	return ThresholdsFromConfig(config.Default().Matcher)
}

func tierFor(score, high, medium float64) Tier {
	switch {
	case score+scoreEpsilon >= high:
		return TierHigh
	case score+scoreEpsilon >= medium:
		return TierMedium
	default:
		return TierLow
	}
}

// Catalog is the read surface the matcher needs.
type Catalog interface {
	SearchTracks(ctx context.Context, key string, tokens []string, limit int) ([]catalog.TrackCandidate, error)
	SearchArtists(ctx context.Context, key string, tokens []string, limit int) ([]catalog.Artist, error)
}

// Scorer compares two strings in [0,1].
type Scorer func(a, b string) float64

// Candidate is a raw track to resolve. When Title is empty the title and
// artist are parsed from Line.
type Candidate struct {
	Line   string
	Title  string
	Artist string
}

// TrackMatch is the outcome for the track title.
type TrackMatch struct {
	Title            string
	Track            *catalog.Track
	Score            float64
	Tier             Tier
	IsHighConfidence bool
}

// ArtistMatch is the outcome for one artist name.
type ArtistMatch struct {
	Name             string
	Role             string
	Artist           *catalog.Artist
	Score            float64
	Tier             Tier
	IsHighConfidence bool
}

// Result bundles the track outcome, artist outcomes, and surfaced aliases.
type Result struct {
	Parsed  ParsedLine
	Track   TrackMatch
	Artists []ArtistMatch
	Aliases []string
}

// Matcher resolves candidates against a catalog.
type Matcher struct {
	catalog    Catalog
	thresholds Thresholds
	score      Scorer
	logger     *slog.Logger
}

// Option customizes a Matcher.
type Option func(*Matcher)

// WithScorer replaces the similarity function.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.score = s
		}
	}
}

// WithLogger sets the matcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logging.NewComponentLogger(logger, "matcher")
	}
}

// New constructs a Matcher.
func New(cat Catalog, thresholds Thresholds, opts ...Option) *Matcher {
	if thresholds.CandidateLimit <= 0 {
		thresholds.CandidateLimit = DefaultThresholds().CandidateLimit
	}
	m := &Matcher{
		catalog:    cat,
		thresholds: thresholds,
		score:      textutil.Similarity,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchTrack resolves a raw track. An empty or unparseable candidate yields a
// low-tier outcome without a match; only catalog read failures return errors.
func (m *Matcher) MatchTrack(ctx context.Context, c Candidate) (Result, error) {
	parsed := ParseLine(c.Line)
	title := strings.TrimSpace(c.Title)
	artistSegment := strings.TrimSpace(c.Artist)
	var featured []string
	if title != "" {
		title, featured = extractFeatured(title)
		if artistSegment == "" {
			artistSegment = parsed.Artist
		}
	} else {
		title = parsed.Title
		featured = parsed.Featured
		if artistSegment == "" {
			artistSegment = parsed.Artist
		}
	}
	parsed.Title = title
	parsed.Artist = artistSegment
	parsed.Featured = featured

	result := Result{
		Parsed:  parsed,
		Track:   TrackMatch{Title: title, Tier: TierLow},
		Aliases: surfaceAliases(parsed),
	}
	if textutil.Normalize(title) == "" {
		return result, nil
	}

	track, err := m.bestTrack(ctx, title, artistSegment)
	if err != nil {
		return Result{}, err
	}
	result.Track = track

	primary, featuredFromArtist := SplitArtists(artistSegment)
	names := make([]artistName, 0, len(primary)+len(featured)+len(featuredFromArtist))
	for _, n := range primary {
		names = append(names, artistName{name: n, role: catalog.RolePrimary})
	}
	for _, n := range append(featuredFromArtist, featured...) {
		names = append(names, artistName{name: n, role: catalog.RoleFeatured})
	}
	artists, err := m.matchArtists(ctx, names)
	if err != nil {
		return Result{}, err
	}
	result.Artists = artists

	m.logger.Debug("track matched",
		logging.String("title", title),
		logging.String("tier", string(track.Tier)),
		logging.Float64("score", track.Score),
		logging.Int("artists", len(artists)),
	)
	return result, nil
}

// FindMatchingArtists resolves each name against catalog artists. Every name
// yields one outcome; names without a candidate come back low-tier with no
// artist.
func (m *Matcher) FindMatchingArtists(ctx context.Context, names []string) ([]ArtistMatch, error) {
	in := make([]artistName, 0, len(names))
	for _, n := range names {
		in = append(in, artistName{name: n, role: catalog.RolePrimary})
	}
	return m.matchArtists(ctx, in)
}

type artistName struct {
	name string
	role string
}

func (m *Matcher) matchArtists(ctx context.Context, names []artistName) ([]ArtistMatch, error) {
	out := make([]ArtistMatch, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := textutil.Key(n.name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		candidates, err := m.catalog.SearchArtists(ctx, key, textutil.Tokenize(n.name), m.thresholds.CandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("search artists for %q: %w", n.name, err)
		}
		match := ArtistMatch{Name: strings.TrimSpace(n.name), Role: n.role, Tier: TierLow}
		for i := range candidates {
			score := m.score(n.name, candidates[i].Name)
			if match.Artist == nil || score > match.Score {
				artist := candidates[i]
				match.Artist = &artist
				match.Score = score
			}
		}
		if match.Artist != nil {
			match.Tier = tierFor(match.Score, m.thresholds.ArtistHigh, m.thresholds.ArtistMedium)
			match.IsHighConfidence = match.Tier == TierHigh
		}
		out = append(out, match)
	}
	return out, nil
}

func (m *Matcher) bestTrack(ctx context.Context, title, artist string) (TrackMatch, error) {
	key := textutil.Key(title)
	tokens := textutil.Tokenize(title)
	if len(tokens) == 0 && key != "" {
		tokens = []string{key}
	}
	candidates, err := m.catalog.SearchTracks(ctx, key, tokens, m.thresholds.CandidateLimit)
	if err != nil {
		return TrackMatch{}, fmt.Errorf("search tracks for %q: %w", title, err)
	}

	composite := title
	if artist != "" {
		composite = artist + " - " + title
	}
	best := TrackMatch{Title: title, Tier: TierLow}
	for i := range candidates {
		score := m.score(title, candidates[i].Track.Title)
		for _, alias := range candidates[i].Aliases {
			if s := m.score(title, alias); s > score {
				score = s
			}
			if s := m.score(composite, alias); s > score {
				score = s
			}
		}
		if best.Track == nil || score > best.Score {
			track := candidates[i].Track
			best.Track = &track
			best.Score = score
		}
	}
	if best.Track != nil {
		best.Tier = tierFor(best.Score, m.thresholds.TrackHigh, m.thresholds.TrackMedium)
		best.IsHighConfidence = best.Tier == TierHigh
	}
	return best, nil
}

func surfaceAliases(parsed ParsedLine) []string {
	surface := parsed.Surface
	if surface == "" {
		switch {
		case parsed.Artist != "" && parsed.Title != "":
			surface = parsed.Artist + " - " + parsed.Title
		default:
			surface = parsed.Title
		}
	}
	if textutil.Key(surface) == "" {
		return nil
	}
	return []string{surface}
}
