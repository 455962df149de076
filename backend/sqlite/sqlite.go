// Package sqlite adapts an embedded SQLite database to the native
// call-level interface. It exists so the driver stack can run end to end
// without a foreign ODBC manager: statements execute eagerly against
// database/sql, results are staged per statement handle, and Fetch replays
// them through the regular bound-buffer protocol.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	_ "modernc.org/sqlite"

	"github.com/SimonWaldherr/tinyODBC/internal/bind"
	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// Driver implements cli.Client over embedded SQLite databases.
type Driver struct {
	mu    sync.Mutex
	next  cli.Handle
	conns map[cli.Handle]*sql.DB
	stmts map[cli.Handle]*stmt
	diags map[cli.Handle]error
}

type stmt struct {
	conn     cli.Handle
	db       *sql.DB
	params   map[int]*cli.ParamDesc
	bindings map[int]*cli.ColBinding
	cols     []cli.ColumnDesc
	rows     [][]any
	row      int
	executed bool
}

// New returns an empty driver. Handles are process-local.
func New() *Driver {
	return &Driver{
		next:  1,
		conns: make(map[cli.Handle]*sql.DB),
		stmts: make(map[cli.Handle]*stmt),
		diags: make(map[cli.Handle]error),
	}
}

func (d *Driver) fail(h cli.Handle, err error) cli.Status {
	d.diags[h] = err
	return cli.StatusError
}

// Connect opens (or creates) the database named by the DSN. Use ":memory:"
// for a throwaway in-memory database.
func (d *Driver) Connect(ctx context.Context, dsn string) (cli.Handle, cli.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	db, err := sql.Open("sqlite", dsn)
	if err == nil {
		// One handle is one session: transactions and in-memory databases
		// must not straddle pooled connections.
		db.SetMaxOpenConns(1)
		err = db.PingContext(ctx)
	}
	if err != nil {
		return cli.NullHandle, d.fail(cli.NullHandle, err)
	}
	h := d.next
	d.next++
	d.conns[h] = db
	return h, cli.Success
}

// Disconnect closes the database behind a connection handle.
func (d *Driver) Disconnect(ctx context.Context, conn cli.Handle) cli.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	db, ok := d.conns[conn]
	if !ok {
		return cli.InvalidHandle
	}
	delete(d.conns, conn)
	delete(d.diags, conn)
	if err := db.Close(); err != nil {
		return d.fail(conn, err)
	}
	return cli.Success
}

// AllocStatement creates a statement handle on a connection.
func (d *Driver) AllocStatement(ctx context.Context, conn cli.Handle) (cli.Handle, cli.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	db, ok := d.conns[conn]
	if !ok {
		return cli.NullHandle, cli.InvalidHandle
	}
	h := d.next
	d.next++
	d.stmts[h] = &stmt{
		conn:     conn,
		db:       db,
		params:   make(map[int]*cli.ParamDesc),
		bindings: make(map[int]*cli.ColBinding),
	}
	return h, cli.Success
}

// FreeStatement drops a statement handle and its staged result.
func (d *Driver) FreeStatement(ctx context.Context, stmtH cli.Handle) cli.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.stmts[stmtH]; !ok {
		return cli.InvalidHandle
	}
	delete(d.stmts, stmtH)
	delete(d.diags, stmtH)
	return cli.Success
}

// BindParameter stores a parameter descriptor for the next execution.
func (d *Driver) BindParameter(stmtH cli.Handle, position int, desc *cli.ParamDesc) cli.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.stmts[stmtH]
	if !ok {
		return cli.InvalidHandle
	}
	if position < 1 {
		return d.fail(stmtH, errInvalidPosition)
	}
	st.params[position] = desc
	return cli.Success
}

// ExecDirect runs the statement. Row-returning statements are drained
// eagerly and staged for Fetch; everything else reports an affected count.
func (d *Driver) ExecDirect(ctx context.Context, stmtH cli.Handle, query string) (cli.ExecInfo, cli.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.stmts[stmtH]
	if !ok {
		return cli.ExecInfo{}, cli.InvalidHandle
	}

	args := make([]any, len(st.params))
	for pos := 1; pos <= len(st.params); pos++ {
		desc, ok := st.params[pos]
		if !ok {
			return cli.ExecInfo{}, d.fail(stmtH, errInvalidPosition)
		}
		v, err := bind.ReadParameter(desc)
		if err != nil {
			return cli.ExecInfo{}, d.fail(stmtH, err)
		}
		args[pos-1] = v
	}

	if returnsRows(query) {
		cols, rows, err := queryAll(ctx, st.db, query, args)
		if err != nil {
			return cli.ExecInfo{}, d.fail(stmtH, err)
		}
		st.cols, st.rows, st.row, st.executed = cols, rows, 0, true
		return cli.ExecInfo{ColumnCount: len(cols), AffectedRows: -1}, cli.Success
	}

	res, err := st.db.ExecContext(ctx, query, args...)
	if err != nil {
		return cli.ExecInfo{}, d.fail(stmtH, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = -1
	}
	st.cols, st.rows, st.executed = nil, nil, true
	return cli.ExecInfo{ColumnCount: 0, AffectedRows: affected}, cli.Success
}

// DescribeColumn reports the staged result shape.
func (d *Driver) DescribeColumn(stmtH cli.Handle, ordinal int) (cli.ColumnDesc, cli.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.stmts[stmtH]
	if !ok {
		return cli.ColumnDesc{}, cli.InvalidHandle
	}
	if !st.executed || ordinal < 1 || ordinal > len(st.cols) {
		return cli.ColumnDesc{}, d.fail(stmtH, errInvalidOrdinal)
	}
	return st.cols[ordinal-1], cli.Success
}

// BindColumn registers an output buffer for an ordinal.
func (d *Driver) BindColumn(stmtH cli.Handle, ordinal int, binding *cli.ColBinding) cli.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.stmts[stmtH]
	if !ok {
		return cli.InvalidHandle
	}
	if ordinal < 1 || ordinal > len(st.cols) {
		return d.fail(stmtH, errInvalidOrdinal)
	}
	st.bindings[ordinal] = binding
	return cli.Success
}

// Fetch writes the next staged row into the bound buffers.
func (d *Driver) Fetch(ctx context.Context, stmtH cli.Handle) cli.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.stmts[stmtH]
	if !ok {
		return cli.InvalidHandle
	}
	if !st.executed || st.row >= len(st.rows) {
		return cli.NoData
	}
	row := st.rows[st.row]
	for ordinal, b := range st.bindings {
		if err := bind.WriteColumn(b, row[ordinal-1]); err != nil {
			return d.fail(stmtH, err)
		}
	}
	st.row++
	return cli.Success
}

// DiagRec reports the last error recorded against a handle.
func (d *Driver) DiagRec(handleType int16, h cli.Handle, recNumber int) (cli.DiagRec, cli.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err, ok := d.diags[h]
	if !ok || recNumber != 1 {
		return cli.DiagRec{}, cli.NoData
	}
	return cli.DiagRec{State: "HY000", Native: 1, Message: err.Error()}, cli.Success
}

type driverError string

func (e driverError) Error() string { return string(e) }

const (
	errInvalidPosition = driverError("parameter positions must be contiguous from 1")
	errInvalidOrdinal  = driverError("column ordinal out of range")
)

// returnsRows sniffs the statement head keyword. SQLite has no prepare-time
// result arity on this path, so the split is lexical.
func returnsRows(query string) bool {
	q := strings.TrimSpace(query)
	for _, kw := range []string{"SELECT", "WITH", "VALUES", "PRAGMA", "EXPLAIN"} {
		if len(q) >= len(kw) && strings.EqualFold(q[:len(kw)], kw) {
			return true
		}
	}
	return false
}

// queryAll drains a query and derives call-level column descriptors from the
// declared types and the observed values.
func queryAll(ctx context.Context, db *sql.DB, query string, args []any) ([]cli.ColumnDesc, [][]any, error) {
	rs, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rs.Close()

	types, err := rs.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	var rows [][]any
	for rs.Next() {
		scan := make([]any, len(types))
		for i := range scan {
			scan[i] = new(any)
		}
		if err := rs.Scan(scan...); err != nil {
			return nil, nil, err
		}
		row := make([]any, len(types))
		for i, cell := range scan {
			row[i] = normalize(*cell.(*any))
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, nil, err
	}

	cols := make([]cli.ColumnDesc, len(types))
	for i, ct := range types {
		cols[i] = describe(i+1, ct, rows)
	}
	return cols, rows, nil
}

// normalize maps database/sql scan values onto the value set the buffer
// protocol carries.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

// describe picks the call-level type for a column. SQLite declared types are
// advisory, so text column sizes come from the widest staged value.
func describe(ordinal int, ct *sql.ColumnType, rows [][]any) cli.ColumnDesc {
	desc := cli.ColumnDesc{Ordinal: ordinal, Name: ct.Name()}
	declared := strings.ToUpper(ct.DatabaseTypeName())
	if declared == "" {
		// Expression columns carry no declared type; go by what actually
		// came back.
		declared = inferredType(ordinal, rows)
	}
	switch declared {
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "TINYINT":
		desc.DataType, desc.Size = cli.TypeBigInt, 19
	case "REAL", "FLOAT", "DOUBLE", "NUMERIC", "DECIMAL":
		desc.DataType, desc.Size = cli.TypeDouble, 15
	case "BOOLEAN", "BOOL", "BIT":
		desc.DataType, desc.Size = cli.TypeBit, 1
	case "DATETIME", "TIMESTAMP", "DATE":
		desc.DataType, desc.Size = cli.TypeTimestamp, cli.TimestampChars
	default:
		desc.DataType, desc.Size = cli.TypeWVarChar, widestText(ordinal, rows)
	}
	return desc
}

func inferredType(ordinal int, rows [][]any) string {
	for _, row := range rows {
		switch row[ordinal-1].(type) {
		case int64:
			return "INTEGER"
		case float64:
			return "REAL"
		case bool:
			return "BOOLEAN"
		case string:
			return "TEXT"
		}
	}
	return "TEXT"
}

func widestText(ordinal int, rows [][]any) int64 {
	max := int64(1)
	for _, row := range rows {
		s, ok := row[ordinal-1].(string)
		if !ok {
			continue
		}
		if n := int64(len(utf16.Encode([]rune(s)))); n > max {
			max = n
		}
	}
	if limit := int64(cli.MaxBindSize/2 - 1); max > limit {
		max = limit
	}
	return max
}
