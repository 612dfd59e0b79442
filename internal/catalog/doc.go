// Package catalog is the production store: canonical mixes, tracks, artists,
// their associations and aliases, plus the contexts and venues attached to
// mixes and the ingestion event log.
//
// Writes that must be idempotent (aliases, association links, context and
// venue upserts) use SQLite upsert clauses instead of inspecting errors.
package catalog
