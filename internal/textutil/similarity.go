package textutil

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Similarity scores a and b in [0,1]. Both inputs are normalized; the score is
// the better Levenshtein ratio of the plain and token-sorted forms, so word
// order changes ("Artist - Title" vs "Title Artist") do not dominate.
// Empty input scores 0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	metric := metrics.NewLevenshtein()
	score := strutil.Similarity(na, nb, metric)
	if sorted := strutil.Similarity(SortTokens(na), SortTokens(nb), metric); sorted > score {
		score = sorted
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
