package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// stubCall is one statement the store sent, with its converted arguments.
type stubCall struct {
	query string
	args  []driver.Value
}

// stubConn answers statements from per-test handlers. It goes through
// database/sql, so argument conversion and Scan behave as with a real driver.
type stubConn struct {
	mu    sync.Mutex
	calls []stubCall

	query func(query string, args []driver.Value) (driver.Rows, error)
	exec  func(query string, args []driver.Value) (driver.Result, error)
}

func newStubDB(t *testing.T, conn *stubConn) *sql.DB {
	t.Helper()
	db := sql.OpenDB(stubConnector{conn: conn})
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func (c *stubConn) record(query string, named []driver.NamedValue) []driver.Value {
	args := make([]driver.Value, len(named))
	for i, nv := range named {
		args[i] = nv.Value
	}
	c.mu.Lock()
	c.calls = append(c.calls, stubCall{query: query, args: args})
	c.mu.Unlock()
	return args
}

func (c *stubConn) QueryContext(ctx context.Context, query string, named []driver.NamedValue) (driver.Rows, error) {
	args := c.record(query, named)
	if c.query == nil {
		return nil, errors.New("unexpected query: " + query)
	}
	return c.query(query, args)
}

func (c *stubConn) ExecContext(ctx context.Context, query string, named []driver.NamedValue) (driver.Result, error) {
	args := c.record(query, named)
	if c.exec == nil {
		return nil, errors.New("unexpected exec: " + query)
	}
	return c.exec(query, args)
}

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type stubConnector struct {
	conn *stubConn
}

func (s stubConnector) Connect(context.Context) (driver.Conn, error) { return s.conn, nil }
func (s stubConnector) Driver() driver.Driver { return stubDriver{conn: s.conn} }

type stubDriver struct {
	conn *stubConn
}

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

type stubRows struct {
	columns []string
	values  [][]driver.Value
}

func (r *stubRows) Columns() []string { return r.columns }
func (r *stubRows) Close() error { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if len(r.values) == 0 {
		return io.EOF
	}
	copy(dest, r.values[0])
	r.values = r.values[1:]
	return nil
}
