// Package logging assembles structured slog loggers and formatting helpers used
// across mixvault.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, raw mix IDs, and providers. The package also provides a
// no-op logger for tests and the asynchronous event Sink that persists
// ingestion events without blocking the caller.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape as the rest of the system.
package logging
