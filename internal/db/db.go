package db

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
	"_pragma=synchronous(NORMAL)",
	"_txlock=immediate",
	"_time_format=sqlite",
}

// Open opens a database connection. A postgres:// or postgresql:// DSN
// selects PostgreSQL; anything else is treated as a SQLite file path.
func Open(dsn string) (*sqlx.DB, error) {
	driver, source := resolve(dsn)

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

func resolve(dsn string) (driver, source string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres, dsn
	}

	source = dsn
	if !strings.HasPrefix(source, "file:") {
		source = "file:" + source
	}
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return DriverSQLite, source + sep + strings.Join(sqlitePragmas, "&")
}
