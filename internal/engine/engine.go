// Package engine is the per-statement execution engine: it allocates a
// statement handle, binds input parameters, executes directly, binds output
// columns, and iterates fetches, decoding each row out of the shared native
// buffers. One-shot execution returns all rows; streamed execution yields
// row chunks with backpressure.
//
// A statement execution context is created per invocation and torn down
// (handle freed, buffers released) exactly once on every exit path, success
// or failure. A connection handle carries at most one active context at a
// time; the engine never issues calls on one statement concurrently.
package engine

import (
	"errors"

	"github.com/SimonWaldherr/tinyODBC/internal/bind"
)

var (
	// ErrConnection reports a failed native allocate or connect call.
	ErrConnection = errors.New("connection failure")

	// ErrExecution reports a failed direct execution.
	ErrExecution = errors.New("execution failed")

	// ErrFetch reports a failed fetch mid-iteration. Rows retrieved before
	// the failure are not retracted.
	ErrFetch = errors.New("fetch failed")

	// Re-exported mapper errors so callers can match the full taxonomy in
	// one place.
	ErrUnsupportedValueType = bind.ErrUnsupportedValueType
	ErrBind                 = bind.ErrBind
	ErrDecode               = bind.ErrDecode
)

// Row is one decoded result row, keyed by column name. Values are owned
// copies: nil, int32, int64, float64, bool or string.
type Row = map[string]any

// Statement is a compiled statement: SQL text plus ordered parameter values.
type Statement struct {
	SQL    string
	Params []bind.Value
}

// Result is the outcome of a one-shot execution. HasAffected is false when
// the driver reported an unknown (negative) affected-row count; a zero count
// is a real zero.
type Result struct {
	Cols        []string
	Rows        []Row
	Affected    int64
	HasAffected bool
}
