// Package queue persists staged raw mixes and their tracklist lines, and owns
// the raw mix status state machine:
//
//	pending -> processing -> canonicalized | failed
//
// A failed raw mix returns to pending only through RetryFailed, which is
// bounded by a maximum age window. Transitions are guarded in SQL so a stale
// caller cannot move a record backwards.
package queue
