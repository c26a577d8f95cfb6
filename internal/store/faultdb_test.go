package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/blagajna/internal/db"
)

// faultyConnector opens SQLite connections whose queries first pass
// through fail. A non-nil error is returned instead of running the query.
type faultyConnector struct {
	dsn  string
	base driver.Driver
	fail func(query string) error
}

func (c *faultyConnector) Connect(context.Context) (driver.Conn, error) {
	conn, err := c.base.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &faultyConn{Conn: conn, fail: c.fail}, nil
}

func (c *faultyConnector) Driver() driver.Driver { return c.base }

type faultyConn struct {
	driver.Conn
	fail func(query string) error
}

func (c *faultyConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := c.fail(query); err != nil {
		return nil, err
	}
	return c.Conn.(driver.QueryerContext).QueryContext(ctx, query, args)
}

func (c *faultyConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := c.fail(query); err != nil {
		return nil, err
	}
	return c.Conn.(driver.ExecerContext).ExecContext(ctx, query, args)
}

func (c *faultyConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	return c.Conn.(driver.ConnPrepareContext).PrepareContext(ctx, query)
}

func (c *faultyConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return c.Conn.(driver.ConnBeginTx).BeginTx(ctx, opts)
}

// newFaultyDB returns a schema-initialised SQLite database whose queries
// can be made to fail.
func newFaultyDB(t *testing.T, fail func(query string) error) *sqlx.DB {
	t.Helper()

	probe, err := sql.Open(db.DriverSQLite, "")
	if err != nil {
		t.Fatalf("loading sqlite driver: %v", err)
	}
	base := probe.Driver()
	probe.Close()

	dsn := "file:" + filepath.Join(t.TempDir(), "faulty.db") +
		"?_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"
	conn := sqlx.NewDb(sql.OpenDB(&faultyConnector{dsn: dsn, base: base, fail: fail}), db.DriverSQLite)
	t.Cleanup(func() { conn.Close() })

	if err := db.EnsureSchema(conn); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return conn
}
