package engine

import (
	"context"
	"fmt"

	"github.com/SimonWaldherr/tinyODBC/internal/bind"
	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// execContext is one statement execution context: the statement handle, the
// arena owning all bound buffers, and the column bindings once known. It is
// created at the start of Execute/Stream and torn down exactly once.
type execContext struct {
	client   cli.Client
	hstmt    cli.Handle
	arena    *bind.Arena
	keys     []string
	bindings []*cli.ColBinding
	freed    bool
}

// newExecContext allocates the statement handle and binds all parameters in
// order. Binding position i completes before position i+1 is issued; the
// driver's binding table is positional and stateful per handle. On any
// failure the context is torn down before the error is returned.
func newExecContext(ctx context.Context, client cli.Client, conn cli.Handle, st Statement) (*execContext, error) {
	hstmt, status := client.AllocStatement(ctx, conn)
	if !status.OK() {
		return nil, fmt.Errorf("tinyodbc: allocate statement handle: %s: %w",
			cli.DiagText(client, cli.HandleDbc, conn), ErrConnection)
	}

	ex := &execContext{client: client, hstmt: hstmt, arena: bind.NewArena()}
	for i, v := range st.Params {
		desc, err := bind.Parameter(v)
		if err != nil {
			ex.close()
			return nil, fmt.Errorf("tinyodbc: parameter %d: %w", i+1, err)
		}
		ex.arena.RetainParam(desc)
		if s := client.BindParameter(hstmt, i+1, desc); !s.OK() {
			err := fmt.Errorf("tinyodbc: bind parameter %d: %s: %w", i+1, ex.diag(), ErrBind)
			ex.close()
			return nil, err
		}
	}
	return ex, nil
}

// close frees the statement handle and releases all buffers. Idempotent:
// the second and later calls are no-ops, never a double free. Teardown uses
// a background context so it runs even after the caller's context is
// canceled.
func (ex *execContext) close() {
	if ex.freed {
		return
	}
	ex.freed = true
	ex.client.FreeStatement(context.Background(), ex.hstmt)
	ex.arena.Release()
}

func (ex *execContext) diag() string {
	return cli.DiagText(ex.client, cli.HandleStmt, ex.hstmt)
}

func (ex *execContext) execDirect(ctx context.Context, query string) (cli.ExecInfo, error) {
	info, status := ex.client.ExecDirect(ctx, ex.hstmt, query)
	if !status.OK() {
		return info, fmt.Errorf("tinyodbc: execute %q: %s: %w", query, ex.diag(), ErrExecution)
	}
	return info, nil
}

// bindColumns describes and binds all result columns. Every column is mapped
// before anything is registered, so a mapping failure leaves no bindings
// partially in place.
func (ex *execContext) bindColumns(count int) error {
	descs := make([]cli.ColumnDesc, count)
	bindings := make([]*cli.ColBinding, count)
	for i := 1; i <= count; i++ {
		desc, status := ex.client.DescribeColumn(ex.hstmt, i)
		if !status.OK() {
			return fmt.Errorf("tinyodbc: describe column %d: %s: %w", i, ex.diag(), ErrBind)
		}
		desc.Ordinal = i
		b, err := bind.Column(desc)
		if err != nil {
			return err
		}
		descs[i-1], bindings[i-1] = desc, b
	}

	for i, b := range bindings {
		ex.arena.RetainColumn(b)
		if s := ex.client.BindColumn(ex.hstmt, i+1, b); !s.OK() {
			return fmt.Errorf("tinyodbc: bind column %d %q: %s: %w",
				i+1, descs[i].Name, ex.diag(), ErrBind)
		}
	}

	ex.bindings = bindings
	ex.keys = columnKeys(descs)
	return nil
}

// fetchRow advances the cursor one row and decodes the rewritten buffers
// into an owned row. Returns ok=false on exhaustion.
func (ex *execContext) fetchRow(ctx context.Context) (Row, bool, error) {
	status := ex.client.Fetch(ctx, ex.hstmt)
	switch {
	case status == cli.NoData:
		return nil, false, nil
	case status.OK():
		// row available, possibly with diagnostic info
	default:
		return nil, false, fmt.Errorf("tinyodbc: fetch: %s: %w", ex.diag(), ErrFetch)
	}

	row := make(Row, len(ex.bindings))
	for i, b := range ex.bindings {
		v, err := bind.DecodeColumn(b)
		if err != nil {
			return nil, false, fmt.Errorf("tinyodbc: column %q: %w", ex.keys[i], err)
		}
		row[ex.keys[i]] = v
	}
	return row, true, nil
}

// columnKeys derives the row keys. Empty or duplicate column names fall back
// to column_<ordinal> so no value is lost.
func columnKeys(descs []cli.ColumnDesc) []string {
	keys := make([]string, len(descs))
	seen := make(map[string]bool, len(descs))
	for i, d := range descs {
		name := d.Name
		if name == "" || seen[name] {
			name = fmt.Sprintf("column_%d", d.Ordinal)
		}
		seen[name] = true
		keys[i] = name
	}
	return keys
}

// Execute runs one compiled statement against the borrowed connection handle
// and accumulates all rows. The statement handle and every bound buffer are
// released exactly once on every exit path. On a fetch failure, rows
// retrieved before the failure are returned alongside the error.
func Execute(ctx context.Context, client cli.Client, conn cli.Handle, st Statement) (*Result, error) {
	ex, err := newExecContext(ctx, client, conn, st)
	if err != nil {
		return nil, err
	}
	defer ex.close()

	info, err := ex.execDirect(ctx, st.SQL)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rows:        []Row{},
		Affected:    info.AffectedRows,
		HasAffected: info.AffectedRows >= 0,
	}
	if info.ColumnCount == 0 {
		return res, nil
	}

	if err := ex.bindColumns(info.ColumnCount); err != nil {
		return nil, err
	}
	res.Cols = ex.keys

	for {
		row, ok, err := ex.fetchRow(ctx)
		if err != nil {
			return res, err
		}
		if !ok {
			return res, nil
		}
		res.Rows = append(res.Rows, row)
	}
}
