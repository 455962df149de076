// Package driver registers a database/sql driver named "tinyodbc" backed by
// the embedded SQLite call-level client. It exists so standard-library
// consumers can use the statement engine without touching handles:
//
//	import _ "github.com/SimonWaldherr/tinyODBC/driver"
//
//	db, err := sql.Open("tinyodbc", ":memory:")
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"time"

	"github.com/SimonWaldherr/tinyODBC/backend/sqlite"
	"github.com/SimonWaldherr/tinyODBC/internal/bind"
	"github.com/SimonWaldherr/tinyODBC/internal/cli"
	"github.com/SimonWaldherr/tinyODBC/internal/engine"
)

// DriverName is the registered database/sql driver name.
const DriverName = "tinyodbc"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Open is a convenience wrapper around sql.Open(DriverName, dsn).
func Open(dsn string) (*sql.DB, error) { return sql.Open(DriverName, dsn) }

// Driver implements database/sql/driver.Driver.
type Driver struct{}

// Open connects to the database named by the DSN.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	client := sqlite.New()
	h, status := client.Connect(context.Background(), dsn)
	if !status.OK() {
		return nil, fmt.Errorf("tinyodbc: open %q: %s: %w",
			dsn, cli.DiagText(client, cli.HandleDbc, h), engine.ErrConnection)
	}
	return &conn{client: client, handle: h}, nil
}

type conn struct {
	client cli.Client
	handle cli.Handle
}

var (
	_ driver.ExecerContext      = (*conn)(nil)
	_ driver.QueryerContext     = (*conn)(nil)
	_ driver.NamedValueChecker  = (*conn)(nil)
	_ driver.ConnBeginTx        = (*conn)(nil)
	_ driver.ConnPrepareContext = (*conn)(nil)
)

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error {
	if status := c.client.Disconnect(context.Background(), c.handle); !status.OK() {
		return fmt.Errorf("tinyodbc: disconnect: %w", engine.ErrConnection)
	}
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if _, err := c.execute(ctx, "BEGIN", nil); err != nil {
		return nil, err
	}
	return &tx{conn: c}, nil
}

// CheckNamedValue widens Go values to the driver's value set before binding.
func (c *conn) CheckNamedValue(nv *driver.NamedValue) error {
	switch v := nv.Value.(type) {
	case nil, int64, float64, bool, string:
		return nil
	case []byte:
		nv.Value = string(v)
	case time.Time:
		nv.Value = v.Format("2006-01-02 15:04:05")
	case int:
		nv.Value = int64(v)
	case int32:
		nv.Value = int64(v)
	case float32:
		nv.Value = float64(v)
	default:
		return fmt.Errorf("tinyodbc: %w: %T", bind.ErrUnsupportedValueType, nv.Value)
	}
	return nil
}

func (c *conn) execute(ctx context.Context, query string, args []driver.NamedValue) (*engine.Result, error) {
	params := make([]bind.Value, len(args))
	for i, a := range args {
		v, err := bind.FromInterface(a.Value)
		if err != nil {
			return nil, err
		}
		params[i] = v
	}
	return engine.Execute(ctx, c.client, c.handle, engine.Statement{SQL: query, Params: params})
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	res, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return result{res}, nil
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	res, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return &rows{res: res}, nil
}

type tx struct{ conn *conn }

func (t *tx) Commit() error {
	_, err := t.conn.execute(context.Background(), "COMMIT", nil)
	return err
}

func (t *tx) Rollback() error {
	_, err := t.conn.execute(context.Background(), "ROLLBACK", nil)
	return err
}

type stmt struct {
	conn  *conn
	query string
}

func (s *stmt) Close() error { return nil }

// NumInput reports -1; arity is checked when the statement executes.
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) CheckNamedValue(nv *driver.NamedValue) error {
	return s.conn.CheckNamedValue(nv)
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.conn.ExecContext(context.Background(), s.query, named(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.QueryContext(context.Background(), s.query, named(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func named(args []driver.Value) []driver.NamedValue {
	nvs := make([]driver.NamedValue, len(args))
	for i, a := range args {
		nvs[i] = driver.NamedValue{Ordinal: i + 1, Value: a}
	}
	return nvs
}

type result struct{ res *engine.Result }

func (r result) LastInsertId() (int64, error) {
	return 0, fmt.Errorf("tinyodbc: last insert id is not reported")
}

func (r result) RowsAffected() (int64, error) {
	if !r.res.HasAffected {
		return 0, fmt.Errorf("tinyodbc: affected row count is unknown")
	}
	return r.res.Affected, nil
}

type rows struct {
	res *engine.Result
	cur int
}

func (r *rows) Columns() []string { return r.res.Cols }

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.cur >= len(r.res.Rows) {
		return io.EOF
	}
	row := r.res.Rows[r.cur]
	r.cur++
	for i, col := range r.res.Cols {
		switch v := row[col].(type) {
		case int32:
			dest[i] = int64(v)
		default:
			dest[i] = v
		}
	}
	return nil
}
