// Package canonical drives one staged raw mix into the production catalog.
//
// The Engine loads the raw mix and its tracklist, runs the duplicate check,
// merges into an existing mix or creates a new one, resolves every track and
// artist through the matcher, and records the outcome on the raw mix. Track
// level failures are collected on the Result and never abort the mix; mix
// level failures are returned to the caller, which owns marking the raw mix
// failed.
//
// The steps are not wrapped in a transaction. A crash leaves the raw mix in
// processing with whatever rows were already written; reprocessing such a mix
// lands on the duplicate path and fills in missing tracks when none were
// linked.
package canonical
