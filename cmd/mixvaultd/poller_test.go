package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"mixvault/internal/logging"
	"mixvault/internal/runner"
	"mixvault/internal/testsupport"
)

type scriptedRunner struct {
	results []runResult
	calls   int
	exports int
	limits  []int
	cancel  context.CancelFunc
	stopAt  int
}

type runResult struct {
	summary runner.Summary
	err     error
}

func (s *scriptedRunner) Run(ctx context.Context, limit int) (runner.Summary, error) {
	s.calls++
	s.limits = append(s.limits, limit)
	if s.calls >= s.stopAt {
		s.cancel()
	}
	if len(s.results) == 0 {
		return runner.Summary{}, nil
	}
	next := s.results[0]
	s.results = s.results[1:]
	return next.summary, next.err
}

func (s *scriptedRunner) ExportMetrics() error {
	s.exports++
	return nil
}

func newTestPoller(t *testing.T, r batchRunner, interval time.Duration) *poller {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Runner.BatchSize = 2
	p := newPoller(r, cfg, logging.NewNop())
	p.interval = interval
	return p
}

func TestPollerDrainsBacklogWithoutWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := &scriptedRunner{
		results: []runResult{
			{summary: runner.Summary{Processed: 2}},
			{summary: runner.Summary{Processed: 2}},
			{summary: runner.Summary{Processed: 1}},
		},
		cancel: cancel,
		stopAt: 3,
	}
	p := newTestPoller(t, fake, time.Hour)

	done := make(chan struct{})
	go func() {
		p.loop(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not drain backlog without waiting for the interval")
	}

	if fake.calls != 3 {
		t.Fatalf("expected 3 runs, got %d", fake.calls)
	}
	if fake.exports != 3 {
		t.Fatalf("expected metrics exported after every run, got %d", fake.exports)
	}
	for _, limit := range fake.limits {
		if limit != 2 {
			t.Fatalf("expected batch size limit 2, got %d", limit)
		}
	}
}

func TestPollerKeepsPollingAfterErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := &scriptedRunner{
		results: []runResult{
			{err: runner.ErrAlreadyRunning},
			{err: errors.New("database is locked")},
			{summary: runner.Summary{Processed: 1}},
		},
		cancel: cancel,
		stopAt: 3,
	}
	p := newTestPoller(t, fake, time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.loop(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller stopped polling after an error")
	}
	if fake.calls != 3 {
		t.Fatalf("expected 3 runs, got %d", fake.calls)
	}
}

func TestPollerCycleReportsBacklog(t *testing.T) {
	tests := []struct {
		name   string
		result runResult
		want   bool
	}{
		{"full batch", runResult{summary: runner.Summary{Processed: 2}}, true},
		{"partial batch", runResult{summary: runner.Summary{Processed: 1}}, false},
		{"empty", runResult{}, false},
		{"locked", runResult{err: runner.ErrAlreadyRunning}, false},
		{"canceled", runResult{err: context.Canceled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &scriptedRunner{results: []runResult{tt.result}, cancel: func() {}, stopAt: 100}
			p := newTestPoller(t, fake, time.Hour)
			if got := p.cycle(context.Background()); got != tt.want {
				t.Fatalf("cycle() = %v, want %v", got, tt.want)
			}
		})
	}
}
