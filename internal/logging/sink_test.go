package logging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mixvault/internal/logging"
)

type recordingWriter struct {
	mu     sync.Mutex
	events []logging.Event
	fail   bool
	block  chan struct{}
}

func (w *recordingWriter) WriteEvent(_ context.Context, evt logging.Event) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("disk full")
	}
	w.events = append(w.events, evt)
	return nil
}

func TestSinkDeliversAndDrains(t *testing.T) {
	writer := &recordingWriter{}
	sink := logging.NewSink(writer, 8, logging.NewNop())

	for i := 0; i < 5; i++ {
		if !sink.Publish(logging.Event{Event: "canonicalized", RawMixID: int64(i)}) {
			t.Fatalf("publish %d rejected", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	stats := sink.Stats()
	if stats.Published != 5 || stats.Written != 5 || stats.Dropped != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(writer.events) != 5 {
		t.Fatalf("expected 5 events written, got %d", len(writer.events))
	}
	if writer.events[0].Time.IsZero() {
		t.Fatal("expected publish to stamp event time")
	}
}

func TestSinkCountsDropsWhenFull(t *testing.T) {
	writer := &recordingWriter{block: make(chan struct{})}
	sink := logging.NewSink(writer, 1, logging.NewNop())

	accepted := 0
	for i := 0; i < 10; i++ {
		if sink.Publish(logging.Event{Event: "noise"}) {
			accepted++
		}
	}
	close(writer.block)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	stats := sink.Stats()
	if stats.Dropped == 0 {
		t.Fatalf("expected dropped events, got %+v", stats)
	}
	if stats.Published != uint64(accepted) || stats.Published+stats.Dropped != 10 {
		t.Fatalf("counters do not add up: %+v (accepted %d)", stats, accepted)
	}
	if stats.Written != stats.Published {
		t.Fatalf("expected every accepted event written, got %+v", stats)
	}
}

func TestSinkCountsWriteFailures(t *testing.T) {
	writer := &recordingWriter{fail: true}
	sink := logging.NewSink(writer, 4, logging.NewNop())
	sink.Publish(logging.Event{Event: "failed"})
	sink.Publish(logging.Event{Event: "failed"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if stats := sink.Stats(); stats.Failed != 2 || stats.Written != 0 {
		t.Fatalf("expected two failures, got %+v", stats)
	}
}

func TestSinkRejectsAfterClose(t *testing.T) {
	sink := logging.NewSink(&recordingWriter{}, 4, nil)
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sink.Publish(logging.Event{Event: "late"}) {
		t.Fatal("expected publish after close to be rejected")
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
