package contextdetect

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"mixvault/internal/config"
	"mixvault/internal/logging"
	"mixvault/internal/textutil"
)

// Context types.
const (
	TypePublisher = "publisher"
	TypeFestival  = "festival"
	TypeRadioShow = "radio_show"
)

// Reason codes.
const (
	ReasonChannelMapping  = "channel_mapping"
	ReasonExactMatch      = "exact_match"
	ReasonFestivalPattern = "festival_pattern"
	ReasonYearDetected    = "year_detected"
	ReasonRadioPattern    = "radio_show_pattern"
	ReasonParentPublisher = "parent_publisher"
	ReasonChannelName     = "channel_name"
	ReasonArtistChannel   = "artist_channel"
	ReasonVenuePattern    = "venue_pattern"
	ReasonLocationText    = "location_text"
)

const (
	channelMappingConfidence = 0.95
	parentConfidenceDrop     = 0.1
	artistChannelConfidence  = 0.8
	genericChannelConfidence = 0.7
	locationTextConfidence   = 0.6
)

var (
	yearPattern          = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	genericChannelTokens = []string{"music", "records", "official"}
	locationPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:venue|location)\s*:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)\b(?:recorded|filmed|live)\s+(?:at|from|in)\s+([^\n.!?()\[\]]+)`),
		regexp.MustCompile(`(?m)(?:^|\s)@\s+([^\n.!?()\[\]@#]+)`),
	}
	numericOnly = regexp.MustCompile(`^[\d\s:/.\-]+$`)
)

// Input is the free text describing one upload.
type Input struct {
	Title       string
	Description string
	ChannelName string
	ChannelID   string
}

// Context is one detected cultural context.
type Context struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Confidence  float64  `json:"confidence"`
	ReasonCodes []string `json:"reason_codes"`
	// Parent names the publisher owning a radio show, when known.
	Parent string `json:"parent,omitempty"`
}

// Venue is a detected physical location.
type Venue struct {
	Name        string   `json:"name"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Confidence  float64  `json:"confidence"`
	ReasonCodes []string `json:"reason_codes"`
}

// Result holds everything detected for one input. Contexts are sorted by
// descending confidence.
type Result struct {
	Contexts []Context `json:"contexts"`
	Venue    *Venue    `json:"venue,omitempty"`
}

type festival struct {
	FestivalEntry
	re *regexp.Regexp
}

type radioShow struct {
	RadioShowEntry
	re *regexp.Regexp
}

type venue struct {
	VenueEntry
	re *regexp.Regexp
}

// Detector evaluates inputs against a compiled knowledge base.
type Detector struct {
	channels   map[string]string
	festivals  []festival
	radioShows []radioShow
	venues     []venue
	logger     *slog.Logger
}

// Option customizes a Detector.
type Option func(*Detector)

// WithLogger sets the detector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logging.NewComponentLogger(logger, "contextdetect")
	}
}

// New compiles kb into a Detector.
func New(kb KnowledgeBase, opts ...Option) (*Detector, error) {
	d := &Detector{
		channels: make(map[string]string, len(kb.Channels)),
		logger:   logging.NewNop(),
	}
	var errs []error
	for _, c := range kb.Channels {
		id := strings.TrimSpace(c.ID)
		if id == "" || strings.TrimSpace(c.Publisher) == "" {
			errs = append(errs, fmt.Errorf("channel %q: id and publisher are required", c.ID))
			continue
		}
		if _, ok := d.channels[id]; !ok {
			d.channels[id] = strings.TrimSpace(c.Publisher)
		}
	}
	for _, f := range kb.Festivals {
		re, err := compile("festival", f.Name, f.Pattern, f.Confidence)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.festivals = append(d.festivals, festival{FestivalEntry: f, re: re})
	}
	for _, r := range kb.RadioShows {
		re, err := compile("radio show", r.Name, r.Pattern, r.Confidence)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.radioShows = append(d.radioShows, radioShow{RadioShowEntry: r, re: re})
	}
	for _, v := range kb.Venues {
		re, err := compile("venue", v.Name, v.Pattern, v.Confidence)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.venues = append(d.venues, venue{VenueEntry: v, re: re})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("knowledge base: %w", err)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewFromConfig builds a Detector from the built-in knowledge base plus the
// configured extension file.
func NewFromConfig(cfg config.Detector, logger *slog.Logger) (*Detector, error) {
	kb, err := LoadKnowledgeBase(cfg.KnowledgeBasePath)
	if err != nil {
		return nil, err
	}
	return New(kb, WithLogger(logger))
}

func compile(kind, name, pattern string, confidence float64) (*regexp.Regexp, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%s %q: name and pattern are required", kind, name)
	}
	if confidence <= 0 || confidence > 1 {
		return nil, fmt.Errorf("%s %q: confidence must be in (0,1]", kind, name)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return re, nil
}

var defaultDetector = sync.OnceValue(func() *Detector {
	d, err := New(Builtin())
	if err != nil {
		panic(err)
	}
	return d
})

// Detect runs the built-in knowledge base against in.
func Detect(in Input) Result {
	return defaultDetector().Detect(in)
}

// Detect returns the contexts and venue found in in. It never fails; any
// internal error yields an empty result.
func (d *Detector) Detect(in Input) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("context detection failed",
				logging.String(logging.FieldEventType, "context_detect_failed"),
				logging.String(logging.FieldErrorHint, "check knowledge base patterns"),
				logging.Any("panic", r),
			)
			result = Result{Contexts: []Context{}}
		}
	}()

	text := textutil.Normalize(strings.Join([]string{in.Title, in.Description}, " "))
	contexts := make([]Context, 0, 4)

	mapped := false
	if publisher, ok := d.channels[strings.TrimSpace(in.ChannelID)]; ok {
		mapped = true
		contexts = append(contexts, Context{
			Name:        publisher,
			Type:        TypePublisher,
			Confidence:  channelMappingConfidence,
			ReasonCodes: []string{ReasonChannelMapping, ReasonExactMatch},
		})
	}

	if f, ok := d.matchFestival(text); ok {
		contexts = append(contexts, f)
	}

	if show, ok := d.matchRadioShow(text); ok {
		contexts = append(contexts, show)
		if show.Parent != "" {
			contexts = append(contexts, Context{
				Name:        show.Parent,
				Type:        TypePublisher,
				Confidence:  roundConfidence(show.Confidence - parentConfidenceDrop),
				ReasonCodes: []string{ReasonParentPublisher},
			})
		}
	}

	if !mapped {
		if publisher, ok := channelPublisher(in.ChannelName); ok {
			contexts = append(contexts, publisher)
		}
	}

	slices.SortStableFunc(contexts, func(a, b Context) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		default:
			return 0
		}
	})

	result.Contexts = contexts
	result.Venue = d.matchVenue(text, in.Description)
	return result
}

func (d *Detector) matchFestival(text string) (Context, bool) {
	for _, f := range d.festivals {
		if !f.re.MatchString(text) {
			continue
		}
		ctx := Context{
			Name:        f.Name,
			Type:        TypeFestival,
			Confidence:  f.Confidence,
			ReasonCodes: []string{ReasonFestivalPattern, ReasonExactMatch},
		}
		if year := yearPattern.FindString(text); year != "" && !strings.Contains(f.Name, year) {
			ctx.Name = f.Name + " " + year
			ctx.ReasonCodes = append(ctx.ReasonCodes, ReasonYearDetected)
		}
		return ctx, true
	}
	return Context{}, false
}

func (d *Detector) matchRadioShow(text string) (Context, bool) {
	for _, r := range d.radioShows {
		if !r.re.MatchString(text) {
			continue
		}
		return Context{
			Name:        r.Name,
			Type:        TypeRadioShow,
			Confidence:  r.Confidence,
			ReasonCodes: []string{ReasonRadioPattern, ReasonExactMatch},
			Parent:      strings.TrimSpace(r.Parent),
		}, true
	}
	return Context{}, false
}

func channelPublisher(channelName string) (Context, bool) {
	name := strings.TrimSpace(channelName)
	if textutil.Normalize(name) == "" {
		return Context{}, false
	}
	confidence := artistChannelConfidence
	reasons := []string{ReasonChannelName, ReasonArtistChannel}
	lower := strings.ToLower(name)
	for _, token := range genericChannelTokens {
		if strings.Contains(lower, token) {
			confidence = genericChannelConfidence
			reasons = []string{ReasonChannelName}
			break
		}
	}
	return Context{
		Name:        name,
		Type:        TypePublisher,
		Confidence:  confidence,
		ReasonCodes: reasons,
	}, true
}

func (d *Detector) matchVenue(text, description string) *Venue {
	for _, v := range d.venues {
		if v.re.MatchString(text) {
			return &Venue{
				Name:        v.Name,
				City:        v.City,
				Country:     v.Country,
				Confidence:  v.Confidence,
				ReasonCodes: []string{ReasonVenuePattern, ReasonExactMatch},
			}
		}
	}
	for _, re := range locationPatterns {
		for _, m := range re.FindAllStringSubmatch(description, -1) {
			capture := strings.TrimSpace(m[1])
			if !usableLocation(capture) {
				continue
			}
			if v := locationVenue(capture); v.Name != "" {
				return v
			}
		}
	}
	return nil
}

func usableLocation(s string) bool {
	if len([]rune(s)) < 3 || numericOnly.MatchString(s) {
		return false
	}
	return textutil.Normalize(s) != ""
}

func locationVenue(capture string) *Venue {
	parts := strings.Split(capture, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	v := &Venue{
		Name:        parts[0],
		Confidence:  locationTextConfidence,
		ReasonCodes: []string{ReasonLocationText},
	}
	if len(parts) > 1 {
		v.City = parts[1]
	}
	if len(parts) > 2 {
		v.Country = strings.Join(parts[2:], ", ")
	}
	return v
}

func roundConfidence(v float64) float64 {
	const scale = 1e6
	return float64(int64(v*scale+0.5)) / scale
}
