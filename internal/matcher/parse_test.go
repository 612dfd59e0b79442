package matcher

import (
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		artist   string
		title    string
		featured []string
		offset   int
		surface  string
	}{
		{"plain", "Daft Punk - One More Time", "Daft Punk", "One More Time", nil, -1, "Daft Punk - One More Time"},
		{"ordinal dot", "01. Amelie Lens - Hypnotized", "Amelie Lens", "Hypnotized", nil, -1, "Amelie Lens - Hypnotized"},
		{"ordinal paren", "3) Bicep - Glue", "Bicep", "Glue", nil, -1, "Bicep - Glue"},
		{"hash ordinal", "#12 Bonobo - Kerala", "Bonobo", "Kerala", nil, -1, "Bonobo - Kerala"},
		{"bracket timestamp", "[01:02:03] Stephan Bodzin – Powers of Ten", "Stephan Bodzin", "Powers of Ten", nil, 3723, "Stephan Bodzin – Powers of Ten"},
		{"short timestamp then ordinal", "12:34 05. Tale Of Us — Nova", "Tale Of Us", "Nova", nil, 754, "Tale Of Us — Nova"},
		{"title only", "ID", "", "ID", nil, -1, "ID"},
		{"decimal title kept", "4.0 Degrees", "", "4.0 Degrees", nil, -1, "4.0 Degrees"},
		{"ordinal before decimal title", "02. 4.0 Degrees", "", "4.0 Degrees", nil, -1, "4.0 Degrees"},
		{"featured in title", "Calvin Harris - Feel So Close (feat. Example & Someone)", "Calvin Harris", "Feel So Close", []string{"Example", "Someone"}, -1, "Calvin Harris - Feel So Close (feat. Example & Someone)"},
		{"hyphenated name kept", "Jean-Michel Jarre - Oxygene", "Jean-Michel Jarre", "Oxygene", nil, -1, "Jean-Michel Jarre - Oxygene"},
		{"empty", "   ", "", "", nil, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line)
			if got.Artist != tt.artist || got.Title != tt.title || got.Surface != tt.surface {
				t.Fatalf("ParseLine(%q) = %+v", tt.line, got)
			}
			if !reflect.DeepEqual(got.Featured, tt.featured) {
				t.Fatalf("featured = %v, want %v", got.Featured, tt.featured)
			}
			switch {
			case tt.offset < 0 && got.OffsetSeconds != nil:
				t.Fatalf("unexpected offset %d", *got.OffsetSeconds)
			case tt.offset >= 0 && (got.OffsetSeconds == nil || *got.OffsetSeconds != tt.offset):
				t.Fatalf("offset = %v, want %d", got.OffsetSeconds, tt.offset)
			}
		})
	}
}

func TestSplitArtists(t *testing.T) {
	tests := []struct {
		segment  string
		primary  []string
		featured []string
	}{
		{"", nil, nil},
		{"Bicep", []string{"Bicep"}, nil},
		{"Solomun & Adriatique, Âme", []string{"Solomun", "Adriatique", "Âme"}, nil},
		{"Skrillex x Fred again..", []string{"Skrillex", "Fred again.."}, nil},
		{"Armin van Buuren vs. Vini Vici", []string{"Armin van Buuren", "Vini Vici"}, nil},
		{"Dixon b2b Âme", []string{"Dixon", "Âme"}, nil},
		{"Above and Beyond", []string{"Above and Beyond"}, nil},
		{"David Guetta ft. Sia", []string{"David Guetta"}, []string{"Sia"}},
		{"Disclosure featuring Sam Smith & Friend", []string{"Disclosure"}, []string{"Sam Smith", "Friend"}},
	}
	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			primary, featured := SplitArtists(tt.segment)
			if !reflect.DeepEqual(primary, tt.primary) || !reflect.DeepEqual(featured, tt.featured) {
				t.Fatalf("SplitArtists(%q) = %v, %v; want %v, %v", tt.segment, primary, featured, tt.primary, tt.featured)
			}
		})
	}
}
