package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/timeline/internal/db"
)

// NewTestDB opens a migrated in-memory database that lives until the test
// ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
