package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// NewTestDB creates a fresh file-backed SQLite database with the schema
// applied. A file is used instead of :memory: so every pooled connection
// sees the same data.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewPostgresTestDB connects to the database named by BLAGAJNA_TEST_POSTGRES
// and truncates both tables. The test is skipped when the variable is unset.
func NewPostgresTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("BLAGAJNA_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("BLAGAJNA_TEST_POSTGRES not set")
	}

	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("opening postgres test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating postgres schema: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE items, sales RESTART IDENTITY`); err != nil {
		db.Close()
		t.Fatalf("truncating postgres tables: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
