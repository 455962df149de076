// Package climock provides a scriptable in-memory implementation of the
// native call-level interface for tests. Results are declared up front,
// failures are injected per call site, and every native call is recorded so
// tests can assert on call order and resource accounting.
//
// The mock honors the real buffer protocol: Fetch rewrites the bound column
// buffers in place via the same layout the engine decodes, and EchoParams
// reflects bound parameter buffers back as a single result row.
package climock

import (
	"context"
	"fmt"
	"sync"

	"github.com/SimonWaldherr/tinyODBC/internal/bind"
	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// Mock implements cli.Client against a scripted result set.
type Mock struct {
	mu sync.Mutex

	// Scripted result. With EchoParams set, the result is instead a single
	// row echoing the bound parameters, one column per position.
	Columns    []cli.ColumnDesc
	Rows       [][]any
	Affected   int64 // affected-row count for zero-column results; negative means unknown
	EchoParams bool

	// Failure injection. FailFetchAt fails the n-th fetch call (1-based).
	FailConnect   bool
	FailAlloc     bool
	FailBindParam bool
	FailExec      bool
	FailDescribe  bool
	FailBindCol   bool
	FailFetchAt   int

	// Diags is returned record by record from DiagRec.
	Diags []cli.DiagRec

	// Call accounting.
	Calls           []string
	ConnectCount    int
	DisconnectCount int
	AllocCount      int
	FreeCount       int
	BindParamCount  int
	ExecCount       int
	BindColCount    int
	FetchCount      int

	next  cli.Handle
	conns map[cli.Handle]bool
	stmts map[cli.Handle]*stmtState
}

type stmtState struct {
	params   []*cli.ParamDesc
	bindings map[int]*cli.ColBinding
	cols     []cli.ColumnDesc
	rows     [][]any
	executed bool
	row      int
}

// New returns an empty mock. Affected defaults to -1 (unknown).
func New() *Mock {
	return &Mock{
		Affected: -1,
		next:     1,
		conns:    make(map[cli.Handle]bool),
		stmts:    make(map[cli.Handle]*stmtState),
	}
}

func (m *Mock) record(format string, args ...any) {
	m.Calls = append(m.Calls, fmt.Sprintf(format, args...))
}

// Connect opens a scripted connection.
func (m *Mock) Connect(ctx context.Context, dsn string) (cli.Handle, cli.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConnectCount++
	m.record("Connect(%q)", dsn)
	if m.FailConnect {
		return cli.NullHandle, cli.StatusError
	}
	h := m.next
	m.next++
	m.conns[h] = true
	return h, cli.Success
}

// Disconnect closes a scripted connection.
func (m *Mock) Disconnect(ctx context.Context, conn cli.Handle) cli.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DisconnectCount++
	m.record("Disconnect(%d)", conn)
	if !m.conns[conn] {
		return cli.InvalidHandle
	}
	delete(m.conns, conn)
	return cli.Success
}

// AllocStatement allocates a statement handle.
func (m *Mock) AllocStatement(ctx context.Context, conn cli.Handle) (cli.Handle, cli.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllocCount++
	m.record("AllocStatement(%d)", conn)
	if m.FailAlloc {
		return cli.NullHandle, cli.StatusError
	}
	h := m.next
	m.next++
	m.stmts[h] = &stmtState{bindings: make(map[int]*cli.ColBinding)}
	return h, cli.Success
}

// FreeStatement releases a statement handle. Freeing an unknown handle
// returns InvalidHandle, which lets tests detect double frees.
func (m *Mock) FreeStatement(ctx context.Context, stmt cli.Handle) cli.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FreeCount++
	m.record("FreeStatement(%d)", stmt)
	if _, ok := m.stmts[stmt]; !ok {
		return cli.InvalidHandle
	}
	delete(m.stmts, stmt)
	return cli.Success
}

// BindParameter records the descriptor at its position.
func (m *Mock) BindParameter(stmt cli.Handle, position int, desc *cli.ParamDesc) cli.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BindParamCount++
	m.record("BindParameter(%d)", position)
	st, ok := m.stmts[stmt]
	if !ok {
		return cli.InvalidHandle
	}
	if m.FailBindParam {
		return cli.StatusError
	}
	for len(st.params) < position {
		st.params = append(st.params, nil)
	}
	st.params[position-1] = desc
	return cli.Success
}

// ExecDirect executes against the scripted result.
func (m *Mock) ExecDirect(ctx context.Context, stmt cli.Handle, query string) (cli.ExecInfo, cli.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecCount++
	m.record("ExecDirect(%q)", query)
	st, ok := m.stmts[stmt]
	if !ok {
		return cli.ExecInfo{}, cli.InvalidHandle
	}
	if m.FailExec {
		return cli.ExecInfo{}, cli.StatusError
	}
	st.executed = true
	st.row = 0

	if m.EchoParams {
		st.cols = make([]cli.ColumnDesc, len(st.params))
		row := make([]any, len(st.params))
		for i, d := range st.params {
			st.cols[i] = echoColumn(i, d)
			v, err := bind.ReadParameter(d)
			if err != nil {
				return cli.ExecInfo{}, cli.StatusError
			}
			row[i] = v
		}
		st.rows = [][]any{row}
		return cli.ExecInfo{ColumnCount: len(st.cols), AffectedRows: -1}, cli.Success
	}

	st.cols = m.Columns
	st.rows = m.Rows
	if len(st.cols) == 0 {
		return cli.ExecInfo{ColumnCount: 0, AffectedRows: m.Affected}, cli.Success
	}
	return cli.ExecInfo{ColumnCount: len(st.cols), AffectedRows: -1}, cli.Success
}

// DescribeColumn returns the scripted descriptor.
func (m *Mock) DescribeColumn(stmt cli.Handle, ordinal int) (cli.ColumnDesc, cli.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DescribeColumn(%d)", ordinal)
	st, ok := m.stmts[stmt]
	if !ok {
		return cli.ColumnDesc{}, cli.InvalidHandle
	}
	if m.FailDescribe || ordinal < 1 || ordinal > len(st.cols) {
		return cli.ColumnDesc{}, cli.StatusError
	}
	return st.cols[ordinal-1], cli.Success
}

// BindColumn records the output binding for an ordinal.
func (m *Mock) BindColumn(stmt cli.Handle, ordinal int, binding *cli.ColBinding) cli.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BindColCount++
	m.record("BindColumn(%d)", ordinal)
	st, ok := m.stmts[stmt]
	if !ok {
		return cli.InvalidHandle
	}
	if m.FailBindCol {
		return cli.StatusError
	}
	st.bindings[ordinal] = binding
	return cli.Success
}

// Fetch writes the next scripted row into the bound buffers.
func (m *Mock) Fetch(ctx context.Context, stmt cli.Handle) cli.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCount++
	m.record("Fetch(#%d)", m.FetchCount)
	st, ok := m.stmts[stmt]
	if !ok {
		return cli.InvalidHandle
	}
	if m.FailFetchAt > 0 && m.FetchCount == m.FailFetchAt {
		return cli.StatusError
	}
	if !st.executed || st.row >= len(st.rows) {
		return cli.NoData
	}
	row := st.rows[st.row]
	for ordinal, b := range st.bindings {
		if ordinal < 1 || ordinal > len(row) {
			return cli.StatusError
		}
		if err := bind.WriteColumn(b, row[ordinal-1]); err != nil {
			return cli.StatusError
		}
	}
	st.row++
	return cli.Success
}

// DiagRec returns the scripted diagnostic records one by one.
func (m *Mock) DiagRec(handleType int16, h cli.Handle, recNumber int) (cli.DiagRec, cli.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recNumber < 1 || recNumber > len(m.Diags) {
		return cli.DiagRec{}, cli.NoData
	}
	return m.Diags[recNumber-1], cli.Success
}

// echoColumn derives a column descriptor from a bound parameter so the
// scripted result round-trips through the regular column path.
func echoColumn(i int, d *cli.ParamDesc) cli.ColumnDesc {
	name := fmt.Sprintf("p%d", i+1)
	switch d.ValueType {
	case cli.CLong:
		return cli.ColumnDesc{Name: name, DataType: cli.TypeInteger, Size: 10}
	case cli.CSBigInt:
		return cli.ColumnDesc{Name: name, DataType: cli.TypeBigInt, Size: 19}
	case cli.CDouble:
		return cli.ColumnDesc{Name: name, DataType: cli.TypeDouble, Size: 15}
	case cli.CBit:
		return cli.ColumnDesc{Name: name, DataType: cli.TypeBit, Size: 1}
	case cli.CWChar:
		size := d.ColumnSize
		if size < 1 {
			size = 1
		}
		return cli.ColumnDesc{Name: name, DataType: cli.TypeWVarChar, Size: size}
	default:
		// NULL parameter; any nullable column shape will do
		return cli.ColumnDesc{Name: name, DataType: cli.TypeWVarChar, Size: 1}
	}
}
