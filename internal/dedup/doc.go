// Package dedup decides whether a staged mix is already in the catalog and
// how its identifiers and scalar fields fold into the existing row.
//
// Duplicate detection is identifier equality only: two mixes are the same
// when they share at least one (provider, id) pair. Merges are additive and
// first-writer-wins; existing values are never replaced.
package dedup
