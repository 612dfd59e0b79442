package textutil

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLength filters tokens too short to be useful for candidate recall.
const minTokenLength = 3

// Normalize folds accents, lower-cases, replaces punctuation and symbols with
// spaces, and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(accentFolder(), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Key returns the compact comparison key for s: Normalize with spaces removed.
func Key(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// SortTokens normalizes s and returns its tokens in lexical order joined by spaces.
func SortTokens(s string) string {
	fields := strings.Fields(Normalize(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// Tokenize splits normalized text into unique tokens, filtering short tokens.
// Longer tokens come first since they are the most selective.
func Tokenize(text string) []string {
	raw := strings.Fields(Normalize(text))
	seen := make(map[string]struct{}, len(raw))
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < minTokenLength {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i]) > len(terms[j])
	})
	return terms
}
