// Package services defines shared utilities consumed by the canonicalization
// pipeline and its runner.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, raw mix IDs, providers, and stage
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (not found vs store vs validation) with errors.Is.
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error handling, observability) stays uniform.
package services
