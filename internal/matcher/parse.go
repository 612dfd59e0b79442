package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	timestampPattern = regexp.MustCompile(`^\s*[\[(]?(\d{1,2}):(\d{2})(?::(\d{2}))?[\])]?\s*[-|]?\s*`)
	ordinalPattern   = regexp.MustCompile(`^\s*(?:#\s*\d{1,3}|\[\d{1,3}\]|\d{1,3}[.)]\s)\s*`)
	dashSeparator    = regexp.MustCompile(`\s+[-–—]\s+`)
	featuringSplit   = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring)\s+`)
	featuringInTitle = regexp.MustCompile(`(?i)\s*[(\[](?:feat\.?|ft\.?|featuring)\s+([^)\]]+)[)\]]`)
	artistSeparators = regexp.MustCompile(`(?i)\s*(?:&|,|\s+x\s+|\s+vs\.?\s+|\s+b2b\s+)\s*`)
)

// ParsedLine is the structured reading of a raw tracklist line.
type ParsedLine struct {
	// Surface is the line with leading timestamps and ordinals removed.
	Surface  string
	Artist   string
	Title    string
	Featured []string
	// OffsetSeconds is the leading timestamp, when the line carried one.
	OffsetSeconds *int
}

// ParseLine strips leading timestamp and ordinal tokens from line and splits
// the remainder on the first dash separator into artist and title. A line
// without a separator is treated as a bare title. Featured artists named in a
// parenthetical of the title are moved to Featured.
func ParseLine(line string) ParsedLine {
	rest := strings.TrimSpace(line)
	var parsed ParsedLine

	for {
		if m := timestampPattern.FindStringSubmatch(rest); m != nil && parsed.OffsetSeconds == nil {
			offset := timestampSeconds(m[1], m[2], m[3])
			parsed.OffsetSeconds = &offset
			rest = rest[len(m[0]):]
			continue
		}
		if loc := ordinalPattern.FindStringIndex(rest); loc != nil && loc[1] < len(rest) {
			rest = rest[loc[1]:]
			continue
		}
		break
	}
	rest = strings.TrimSpace(rest)
	parsed.Surface = rest
	if rest == "" {
		return parsed
	}

	if loc := dashSeparator.FindStringIndex(rest); loc != nil {
		parsed.Artist = strings.TrimSpace(rest[:loc[0]])
		parsed.Title = strings.TrimSpace(rest[loc[1]:])
	} else {
		parsed.Title = rest
	}
	parsed.Title, parsed.Featured = extractFeatured(parsed.Title)
	return parsed
}

// SplitArtists splits an artist segment into primary and featured names.
func SplitArtists(segment string) (primary, featured []string) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return nil, nil
	}
	main := segment
	if loc := featuringSplit.FindStringIndex(segment); loc != nil {
		main = segment[:loc[0]]
		featured = splitNames(segment[loc[1]:])
	}
	return splitNames(main), featured
}

func splitNames(segment string) []string {
	parts := artistSeparators.Split(segment, -1)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.Trim(strings.TrimSpace(part), "()[]")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func extractFeatured(title string) (string, []string) {
	matches := featuringInTitle.FindAllStringSubmatch(title, -1)
	if len(matches) == 0 {
		return title, nil
	}
	var featured []string
	for _, m := range matches {
		featured = append(featured, splitNames(m[1])...)
	}
	cleaned := strings.TrimSpace(featuringInTitle.ReplaceAllString(title, ""))
	return cleaned, featured
}

func timestampSeconds(a, b, c string) int {
	first, _ := strconv.Atoi(a)
	second, _ := strconv.Atoi(b)
	if c == "" {
		return first*60 + second
	}
	third, _ := strconv.Atoi(c)
	return first*3600 + second*60 + third
}
