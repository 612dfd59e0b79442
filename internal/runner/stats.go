package runner

import (
	"context"

	"mixvault/internal/queue"
	"mixvault/internal/services"
)

// Stats reports raw mix counts per status.
type Stats struct {
	Counts      map[queue.Status]int `json:"counts"`
	Total       int                  `json:"total"`
	SuccessRate float64              `json:"success_rate"`
}

// Stats returns per-status counts and the success rate
// canonicalized / (canonicalized + failed) as a percentage.
func (r *Runner) Stats(ctx context.Context) (Stats, error) {
	counts, err := r.deps.Raw.Stats(ctx)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrStore, "stats", "count raw mixes", "", err)
	}
	return ComputeStats(counts), nil
}

// ComputeStats derives totals and the success rate from per-status counts.
func ComputeStats(counts map[queue.Status]int) Stats {
	out := Stats{Counts: make(map[queue.Status]int, len(counts))}
	for _, status := range queue.AllStatuses() {
		out.Counts[status] = counts[status]
	}
	for _, n := range out.Counts {
		out.Total += n
	}
	done := out.Counts[queue.StatusCanonicalized]
	if finished := done + out.Counts[queue.StatusFailed]; finished > 0 {
		out.SuccessRate = float64(done) / float64(finished) * 100
	}
	return out
}
