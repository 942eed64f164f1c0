package testutil

import (
	"database/sql"
	"testing"

	"imagecompressor/internal/db"
	fssql "imagecompressor/sql"

	_ "modernc.org/sqlite"
)

// SetupTestDB creates a temporary in-memory SQLite database with migrations applied.
// The connection is closed when the test ends.
func SetupTestDB(t *testing.T) (*sql.DB, *db.Queries) {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Ensure in-memory DB uses a single connection to avoid per-connection isolation
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)
	t.Cleanup(func() { database.Close() })

	if err := db.ApplyMigrations(database, fssql.MigrationsFS); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	var count int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('compression_jobs', 'compression_events')").Scan(&count)
	if err != nil {
		t.Fatalf("failed to verify tables: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tables, found %d", count)
	}

	return database, db.New(database)
}
