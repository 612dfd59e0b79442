// Package runner pulls pending raw mixes in batches and canonicalizes them one
// at a time.
//
// A run holds a host-level lock so only one runner drives the staging table,
// tags every log line and ingestion event with a run id, and paces store
// work with an optional rate limit. A mix-level failure marks that raw mix
// failed with the joined error text and moves on; only failures to load the
// batch abort a run. Canonicalized mixes additionally get their detected
// contexts and venue persisted on a best-effort basis.
package runner
