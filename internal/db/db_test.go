package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		dsn    string
		driver string
		prefix string
	}{
		{"blagajna.db", DriverSQLite, "file:blagajna.db?_pragma=busy_timeout(5000)"},
		{"file:x.db?cache=shared", DriverSQLite, "file:x.db?cache=shared&_pragma="},
		{"postgres://u:p@localhost/db", DriverPostgres, "postgres://u:p@localhost/db"},
		{"postgresql://localhost/db", DriverPostgres, "postgresql://localhost/db"},
	}

	for _, tt := range tests {
		driver, source := resolve(tt.dsn)
		if driver != tt.driver {
			t.Errorf("resolve(%q) driver = %q, want %q", tt.dsn, driver, tt.driver)
		}
		if !strings.HasPrefix(source, tt.prefix) {
			t.Errorf("resolve(%q) source = %q, want prefix %q", tt.dsn, source, tt.prefix)
		}
	}

	_, source := resolve("a.db")
	if !strings.Contains(source, "_txlock=immediate") {
		t.Errorf("expected immediate transactions in %q", source)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := EnsureSchema(db); err != nil {
			t.Fatalf("EnsureSchema (run %d): %v", i+1, err)
		}
	}

	var tables int
	if err := db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('items', 'sales')`); err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if tables != 2 {
		t.Errorf("expected 2 tables, got %d", tables)
	}
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	db := NewTestDB(t)
	db.SetMaxOpenConns(3)

	for i := 0; i < 3; i++ {
		conn, err := db.Conn(t.Context())
		if err != nil {
			t.Fatalf("Conn: %v", err)
		}
		defer conn.Close()

		var mode string
		if err := conn.QueryRowContext(t.Context(), `PRAGMA journal_mode`).Scan(&mode); err != nil {
			t.Fatalf("journal_mode: %v", err)
		}
		if mode != "wal" {
			t.Errorf("connection %d: expected wal, got %q", i, mode)
		}
	}
}

func TestSchemaRejectsNegativeQuantity(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.Exec(`INSERT INTO items (name, quantity, price, created_at, updated_at)
		VALUES ('x', -1, '1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err == nil {
		t.Error("expected CHECK constraint to reject negative quantity")
	}
}
