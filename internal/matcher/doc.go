// Package matcher resolves raw tracklist lines against the catalog.
//
// A line is parsed into artist and title segments (timestamps and ordinals
// stripped, featured artists separated), candidate tracks and artists are
// recalled from the catalog by normalized tokens, and each candidate is scored
// with textutil.Similarity. Scores map to confidence tiers; only the high tier
// licenses reuse of an existing catalog row. Every attempt surfaces the raw
// line as an alias so textual variants accumulate without forcing merges.
package matcher
