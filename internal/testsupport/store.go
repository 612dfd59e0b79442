package testsupport

import (
	"testing"

	"mixvault/internal/config"
	"mixvault/internal/database"
)

// MustOpenDB opens the catalog database for tests and registers cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *database.DB {
	t.Helper()

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
