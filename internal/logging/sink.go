package logging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Event is an ingestion event persisted by the Sink.
type Event struct {
	Time     time.Time
	RunID    string
	RawMixID int64
	Level    string
	Event    string
	Message  string
}

// SinkWriter persists a single event.
type SinkWriter interface {
	WriteEvent(ctx context.Context, evt Event) error
}

// SinkStats reports delivery counters for a Sink.
type SinkStats struct {
	Published uint64
	Written   uint64
	Dropped   uint64
	Failed    uint64
}

// Sink delivers events to a SinkWriter on a background goroutine. Publish never
// blocks; events that do not fit the buffer are dropped and counted, and write
// failures are counted and logged instead of being discarded.
type Sink struct {
	writer SinkWriter
	logger *slog.Logger
	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	published atomic.Uint64
	written   atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewSink starts a sink with the given buffer capacity.
func NewSink(writer SinkWriter, buffer int, logger *slog.Logger) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Sink{
		writer: writer,
		logger: NewComponentLogger(logger, "event-sink"),
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// Publish enqueues evt without waiting. It reports whether the event was accepted.
func (s *Sink) Publish(evt Event) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return false
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}
	select {
	case s.events <- evt:
		s.published.Add(1)
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Close stops accepting events and waits for queued events to drain or ctx to end.
func (s *Sink) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the delivery counters.
func (s *Sink) Stats() SinkStats {
	if s == nil {
		return SinkStats{}
	}
	return SinkStats{
		Published: s.published.Load(),
		Written:   s.written.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
	}
}

func (s *Sink) loop() {
	defer close(s.done)
	for evt := range s.events {
		if s.writer == nil {
			s.failed.Add(1)
			continue
		}
		if err := s.writer.WriteEvent(context.Background(), evt); err != nil {
			s.failed.Add(1)
			s.logger.Warn("ingestion event write failed",
				String(FieldEventType, "event_sink_write_failed"),
				String(FieldErrorHint, "check catalog database health"),
				String("event", evt.Event),
				Error(err),
			)
			continue
		}
		s.written.Add(1)
	}
}
