// Package metrics exposes pipeline counters through a Prometheus registry
// and writes them to a node-exporter textfile after each run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed raw mixes.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// PipelineMetrics holds the canonicalization metrics.
type PipelineMetrics struct {
	registry *prometheus.Registry

	rawMixesProcessed *prometheus.CounterVec
	tracks            *prometheus.CounterVec
	artistsCreated    prometheus.Counter
	aliasesCreated    prometheus.Counter
	trackErrors       prometheus.Counter
	mixDuration       prometheus.Histogram
	queueDepth        *prometheus.GaugeVec
	sinkEvents        *prometheus.GaugeVec
	lastRunTimestamp  prometheus.Gauge

	collectors []prometheus.Collector
}

// NewPipelineMetrics creates the metrics and registers them on registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.rawMixesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixvault_raw_mixes_processed_total",
			Help: "Raw mixes driven to a terminal state, by outcome",
		},
		[]string{"outcome"},
	)
	m.tracks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixvault_tracks_total",
			Help: "Tracklist lines resolved, by whether the track was created or reused",
		},
		[]string{"action"},
	)
	m.artistsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixvault_artists_created_total",
		Help: "Canonical artists created",
	})
	m.aliasesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixvault_track_aliases_created_total",
		Help: "Track aliases recorded",
	})
	m.trackErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixvault_track_errors_total",
		Help: "Tracklist lines that failed to import",
	})
	m.mixDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mixvault_canonicalize_duration_seconds",
		Help:    "Time taken to canonicalize one raw mix",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
	m.queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mixvault_raw_mixes",
			Help: "Raw mixes by status",
		},
		[]string{"status"},
	)
	m.sinkEvents = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mixvault_sink_events",
			Help: "Ingestion log events by delivery state for the last run",
		},
		[]string{"state"},
	)
	m.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mixvault_last_run_timestamp_seconds",
		Help: "Unix time the last batch run finished",
	})

	m.collectors = []prometheus.Collector{
		m.rawMixesProcessed,
		m.tracks,
		m.artistsCreated,
		m.aliasesCreated,
		m.trackErrors,
		m.mixDuration,
		m.queueDepth,
		m.sinkEvents,
		m.lastRunTimestamp,
	}
}

// Describe implements prometheus.Collector.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// Registry returns the registry the metrics are registered on.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// MixResult is the subset of a canonicalization result the metrics track.
type MixResult struct {
	Outcome        string
	TracksCreated  int
	TracksReused   int
	ArtistsCreated int
	AliasesCreated int
	TrackErrors    int
	Duration       time.Duration
}

// RecordMix records one processed raw mix.
func (m *PipelineMetrics) RecordMix(r MixResult) {
	m.rawMixesProcessed.WithLabelValues(r.Outcome).Inc()
	m.tracks.WithLabelValues("created").Add(float64(r.TracksCreated))
	m.tracks.WithLabelValues("reused").Add(float64(r.TracksReused))
	m.artistsCreated.Add(float64(r.ArtistsCreated))
	m.aliasesCreated.Add(float64(r.AliasesCreated))
	m.trackErrors.Add(float64(r.TrackErrors))
	if r.Duration > 0 {
		m.mixDuration.Observe(r.Duration.Seconds())
	}
}

// SetQueueDepth records the number of raw mixes in each status.
func (m *PipelineMetrics) SetQueueDepth(counts map[string]int) {
	for status, n := range counts {
		m.queueDepth.WithLabelValues(status).Set(float64(n))
	}
}

// SetSinkStats records ingestion log delivery counts.
func (m *PipelineMetrics) SetSinkStats(published, written, dropped, failed uint64) {
	m.sinkEvents.WithLabelValues("published").Set(float64(published))
	m.sinkEvents.WithLabelValues("written").Set(float64(written))
	m.sinkEvents.WithLabelValues("dropped").Set(float64(dropped))
	m.sinkEvents.WithLabelValues("failed").Set(float64(failed))
}

// MarkRunFinished stamps the last run time.
func (m *PipelineMetrics) MarkRunFinished(at time.Time) {
	m.lastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in text exposition format to path. An
// empty path is a no-op.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
