package contextdetect_test

import (
	"path/filepath"
	"slices"
	"testing"

	"mixvault/internal/contextdetect"
	"mixvault/internal/testsupport"
)

func TestDetectFestivalWithYear(t *testing.T) {
	res := contextdetect.Detect(contextdetect.Input{Title: "Tomorrowland 2019 Aftermovie Set"})
	if len(res.Contexts) != 1 {
		t.Fatalf("expected exactly one context, got %+v", res.Contexts)
	}
	got := res.Contexts[0]
	if got.Name != "Tomorrowland 2019" || got.Type != contextdetect.TypeFestival || got.Confidence != 0.9 {
		t.Fatalf("unexpected festival %+v", got)
	}
	if !slices.Contains(got.ReasonCodes, contextdetect.ReasonExactMatch) {
		t.Fatalf("expected exact_match reason, got %v", got.ReasonCodes)
	}
}

func TestDetectChannelMapping(t *testing.T) {
	res := contextdetect.Detect(contextdetect.Input{
		Title:       "Solomun | Live Set",
		ChannelName: "Boiler Room",
		ChannelID:   "UCGBpxWJr9FNOcFYA5GkKrMg",
	})
	if len(res.Contexts) != 1 {
		t.Fatalf("channel mapping should suppress the channel-name publisher, got %+v", res.Contexts)
	}
	got := res.Contexts[0]
	if got.Name != "Boiler Room" || got.Confidence != 0.95 {
		t.Fatalf("unexpected publisher %+v", got)
	}
	if !slices.Equal(got.ReasonCodes, []string{contextdetect.ReasonChannelMapping, contextdetect.ReasonExactMatch}) {
		t.Fatalf("unexpected reasons %v", got.ReasonCodes)
	}
}

func TestDetectChannelNamePublisher(t *testing.T) {
	tests := []struct {
		channel    string
		confidence float64
	}{
		{"Charlotte de Witte", 0.8},
		{"Drumcode Records", 0.7},
		{"Techno Music Hub", 0.7},
		{"Anyma Official", 0.7},
	}
	for _, tt := range tests {
		res := contextdetect.Detect(contextdetect.Input{Title: "Live set", ChannelName: tt.channel})
		if len(res.Contexts) != 1 || res.Contexts[0].Name != tt.channel || res.Contexts[0].Confidence != tt.confidence {
			t.Fatalf("channel %q: got %+v", tt.channel, res.Contexts)
		}
	}
}

func TestDetectRadioShowEmitsParent(t *testing.T) {
	res := contextdetect.Detect(contextdetect.Input{
		Title:       "A State Of Trance Episode 1000 - Armin van Buuren",
		ChannelName: "Trance Lover",
	})
	var names []string
	for _, c := range res.Contexts {
		names = append(names, c.Name)
	}
	want := []string{"A State of Trance", "Armada Music", "Trance Lover"}
	if !slices.Equal(names, want) {
		t.Fatalf("contexts = %v, want %v", names, want)
	}
	if res.Contexts[1].Confidence != 0.8 || res.Contexts[1].Type != contextdetect.TypePublisher {
		t.Fatalf("unexpected parent %+v", res.Contexts[1])
	}
}

func TestDetectSortsByConfidenceStable(t *testing.T) {
	res := contextdetect.Detect(contextdetect.Input{
		Title:     "Essential Mix recorded at Creamfields 2023",
		ChannelID: "UCsN8M73DMWa8SPp5o_0IAQQ",
	})
	var got []string
	for _, c := range res.Contexts {
		got = append(got, c.Name)
	}
	want := []string{"Tomorrowland", "Creamfields 2023", "Essential Mix", "BBC Radio 1"}
	if !slices.Equal(got, want) {
		t.Fatalf("contexts = %v, want %v", got, want)
	}
}

func TestDetectVenue(t *testing.T) {
	res := contextdetect.Detect(contextdetect.Input{Title: "Bicep live at Printworks"})
	if res.Venue == nil || res.Venue.Name != "Printworks" || res.Venue.City != "London" {
		t.Fatalf("unexpected venue %+v", res.Venue)
	}
	if !slices.Equal(res.Venue.ReasonCodes, []string{contextdetect.ReasonVenuePattern, contextdetect.ReasonExactMatch}) {
		t.Fatalf("unexpected reasons %v", res.Venue.ReasonCodes)
	}

	res = contextdetect.Detect(contextdetect.Input{
		Title:       "Sunset session",
		Description: "Recorded at 12:30\nRecorded at Kater Blau, Berlin, Germany",
	})
	if res.Venue == nil {
		t.Fatal("expected location venue")
	}
	if res.Venue.Name != "Kater Blau" || res.Venue.City != "Berlin" || res.Venue.Country != "Germany" || res.Venue.Confidence != 0.6 {
		t.Fatalf("unexpected venue %+v", res.Venue)
	}

	res = contextdetect.Detect(contextdetect.Input{Title: "Kater Blau", Description: "no location here"})
	if res.Venue != nil {
		t.Fatalf("expected no venue, got %+v", res.Venue)
	}
}

func TestDetectEmptyInput(t *testing.T) {
	res := contextdetect.Detect(contextdetect.Input{})
	if res.Contexts == nil || len(res.Contexts) != 0 || res.Venue != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestLoadKnowledgeBaseExtends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.toml")
	testsupport.WriteFile(t, path, `
[[channels]]
id = "UC-local"
publisher = "Local Label"

[[channels]]
id = "UCGBpxWJr9FNOcFYA5GkKrMg"
publisher = "Not Boiler Room"

[[festivals]]
name = "Fusion"
pattern = '\bfusion festival\b'
confidence = 0.85
`)
	kb, err := contextdetect.LoadKnowledgeBase(path)
	if err != nil {
		t.Fatalf("LoadKnowledgeBase failed: %v", err)
	}
	d, err := contextdetect.New(kb)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := d.Detect(contextdetect.Input{Title: "Fusion Festival 2022 closing", ChannelID: "UC-local"})
	if len(res.Contexts) != 2 || res.Contexts[0].Name != "Local Label" || res.Contexts[1].Name != "Fusion 2022" {
		t.Fatalf("unexpected contexts %+v", res.Contexts)
	}

	res = d.Detect(contextdetect.Input{ChannelID: "UCGBpxWJr9FNOcFYA5GkKrMg"})
	if len(res.Contexts) != 1 || res.Contexts[0].Name != "Boiler Room" {
		t.Fatalf("built-in channel mapping should win, got %+v", res.Contexts)
	}
}

func TestNewRejectsInvalidPatterns(t *testing.T) {
	kb := contextdetect.KnowledgeBase{Festivals: []contextdetect.FestivalEntry{{Name: "Broken", Pattern: "(", Confidence: 0.9}}}
	if _, err := contextdetect.New(kb); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	kb = contextdetect.KnowledgeBase{Venues: []contextdetect.VenueEntry{{Name: "Club", Pattern: `\bclub\b`, Confidence: 1.5}}}
	if _, err := contextdetect.New(kb); err == nil {
		t.Fatal("expected error for out-of-range confidence")
	}
}
