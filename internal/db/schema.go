package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sqliteSchema stores money as decimal text so no precision is lost.
// sales.item_id is deliberately not a foreign key: deleting an item
// keeps its sales.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL CHECK (name <> ''),
    quantity   INTEGER NOT NULL CHECK (quantity >= 0),
    price      TEXT NOT NULL CHECK (CAST(price AS REAL) >= 0),
    image_ref  TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id    INTEGER NOT NULL,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    total      TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_item_id ON sales(item_id);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS items (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL CHECK (name <> ''),
    quantity   INTEGER NOT NULL CHECK (quantity >= 0),
    price      NUMERIC NOT NULL CHECK (price >= 0),
    image_ref  TEXT,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
    id         BIGSERIAL PRIMARY KEY,
    item_id    BIGINT NOT NULL,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    total      NUMERIC NOT NULL CHECK (total >= 0),
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_item_id ON sales(item_id);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
