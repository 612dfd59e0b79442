package textutil

import (
	"math"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Hello,   World!  ", "hello world"},
		{"Beyoncé — Déjà Vu (Remix)", "beyonce deja vu remix"},
		{"Røyksopp & Robyn", "røyksopp robyn"},
		{"A.D.H.D.", "a d h d"},
		{"123 Main-St.", "123 main st"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyAndSortTokens(t *testing.T) {
	if got := Key("Daft Punk - One More Time"); got != "daftpunkonemoretime" {
		t.Errorf("Key() = %q", got)
	}
	if got := SortTokens("Time More One"); got != "more one time" {
		t.Errorf("SortTokens() = %q", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Man with the Red Face (Original Mix)")
	// Stable sort keeps input order among equal lengths.
	want := []string{"original", "with", "face", "the", "man", "red", "mix"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize() = %v, want %v", got, want)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"empty a", "", "abc", 0},
		{"empty b", "abc", "", 0},
		{"punctuation only", "!!!", "abc", 0},
		{"identical after normalize", "Strobe!", "strobe", 1},
		{"one edit in ten", "abcdefghij", "abcdefghiX", 0.9},
		{"one edit in five", "abcde", "abcdX", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityIgnoresTokenOrder(t *testing.T) {
	got := Similarity("One More Time Daft Punk", "Daft Punk One More Time")
	if got != 1 {
		t.Errorf("expected token-sorted comparison to score 1, got %v", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "Strobe (Club Edit)", "Strobe Radio Edit"
	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("Similarity not symmetric: %v vs %v", Similarity(a, b), Similarity(b, a))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"yt:ABC-123", "yt_abc-123"},
		{"///", "unknown"},
		{"SoundCloud", "soundcloud"},
		{"Boiler  Room!!", "boiler_room"},
		{"Beyoncé", "beyonce"},
		{"  mix:cloud  ", "mix_cloud"},
		{strings.Repeat("a", 80), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
