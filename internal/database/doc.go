// Package database owns the SQLite catalog database shared by the staging
// queue and the production catalog.
//
// It opens the database with the connection pragmas the rest of the system
// relies on (WAL, foreign keys, busy timeout), applies the embedded SQL
// migrations in order, retries statements that hit SQLITE_BUSY, and
// classifies uniqueness violations as ErrConflict so callers never have to
// inspect driver error text.
package database
