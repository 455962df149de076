// Package tinyodbc is a pure-Go statement layer over call-level database
// interfaces in the ODBC style. It maps Go values onto native parameter and
// column buffers, runs statements through a small executor, and decodes the
// rewritten buffers back into Go rows.
//
// The package has three layers:
//
//   - a client interface (Client) modeling the native handle API: connect,
//     allocate a statement, bind, execute, fetch, read diagnostics
//   - an executor running one statement eagerly (Execute) or chunk by chunk
//     (Stream), with the handle and every bound buffer released exactly once
//   - value mapping between Go values and the wire buffers: UTF-16 text,
//     little-endian scalars, and the null/length indicator protocol
//
// # Basic Usage
//
// Execute a statement against the embedded SQLite backend:
//
//	client := sqlite.New()
//	conn, _ := client.Connect(ctx, ":memory:")
//
//	res, err := tinyodbc.Execute(ctx, client, conn, tinyodbc.Statement{
//	    SQL:    "SELECT id, name FROM users WHERE score > ?",
//	    Params: []tinyodbc.Value{tinyodbc.Float64(7.5)},
//	})
//	for _, row := range res.Rows {
//	    fmt.Println(row["id"], row["name"])
//	}
//
// # Streaming
//
// Large results are consumed in chunks without accumulating all rows:
//
//	cs, err := tinyodbc.Stream(ctx, client, conn, st, 256)
//	defer cs.Close()
//	for cs.Next() {
//	    use(cs.Chunk().Rows)
//	}
//	if err := cs.Err(); err != nil { ... }
//
// # Pooling
//
// NewPool hands out validated connections with an idle sweep:
//
//	p, _ := tinyodbc.NewPool(client, tinyodbc.PoolConfig{DSN: ":memory:"}, tinyodbc.PoolHooks{})
//	c, _ := p.Get(ctx)
//	defer p.Put(c)
//
// database/sql consumers can instead import the driver subpackage and use
// sql.Open("tinyodbc", dsn).
package tinyodbc

import (
	"context"

	"github.com/SimonWaldherr/tinyODBC/internal/bind"
	"github.com/SimonWaldherr/tinyODBC/internal/cli"
	"github.com/SimonWaldherr/tinyODBC/internal/engine"
	"github.com/SimonWaldherr/tinyODBC/internal/pool"
)

// Core types, re-exported from the internal packages.
type (
	// Client is the native call-level interface a backend implements.
	Client = cli.Client
	// Handle is an opaque native handle.
	Handle = cli.Handle
	// Status is a native return code.
	Status = cli.Status
	// DiagRec is one diagnostic record.
	DiagRec = cli.DiagRec

	// Value is a dynamically typed statement parameter.
	Value = bind.Value
	// Statement is one SQL string with positional parameters.
	Statement = engine.Statement
	// Result is a fully accumulated execution result.
	Result = engine.Result
	// Row maps column keys to decoded Go values.
	Row = engine.Row
	// Chunk is one streamed batch of rows.
	Chunk = engine.Chunk
	// Chunks is a lazy sequence of row chunks.
	Chunks = engine.Chunks

	// Pool hands out pooled connections.
	Pool = pool.Pool
	// PoolConn is one pooled connection.
	PoolConn = pool.Conn
	// PoolConfig configures a pool.
	PoolConfig = pool.Config
	// PoolHooks observe pool lifecycle events.
	PoolHooks = pool.Hooks
)

// Handle types accepted by Diagnostics.
const (
	HandleEnv  = cli.HandleEnv
	HandleDbc  = cli.HandleDbc
	HandleStmt = cli.HandleStmt
)

// Value constructors.
var (
	Null    = bind.Null
	Int     = bind.Int
	Int32   = bind.Int32
	Int64   = bind.Int64
	Float64 = bind.Float64
	Bool    = bind.Bool
	Text    = bind.Text

	// FromInterface maps an arbitrary Go value onto a Value.
	FromInterface = bind.FromInterface
)

// Sentinel errors.
var (
	ErrConnection           = engine.ErrConnection
	ErrExecution            = engine.ErrExecution
	ErrFetch                = engine.ErrFetch
	ErrBind                 = engine.ErrBind
	ErrDecode               = engine.ErrDecode
	ErrUnsupportedValueType = engine.ErrUnsupportedValueType
	ErrPoolClosed           = pool.ErrClosed
	ErrPoolBusy             = pool.ErrBusy
)

// Execute runs one statement and accumulates all rows.
func Execute(ctx context.Context, client Client, conn Handle, st Statement) (*Result, error) {
	return engine.Execute(ctx, client, conn, st)
}

// Stream runs one statement and yields rows in chunks of chunkSize.
func Stream(ctx context.Context, client Client, conn Handle, st Statement, chunkSize int) (*Chunks, error) {
	return engine.Stream(ctx, client, conn, st, chunkSize)
}

// NewPool builds a connection pool over a client.
func NewPool(client Client, cfg PoolConfig, hooks PoolHooks) (*Pool, error) {
	return pool.New(client, cfg, hooks)
}

// LoadPoolConfig reads a pool configuration from a YAML file.
func LoadPoolConfig(path string) (PoolConfig, error) {
	return pool.LoadConfig(path)
}

// Diagnostics walks every diagnostic record on a handle and joins them into
// one readable string.
func Diagnostics(client Client, handleType int16, h Handle) string {
	return cli.DiagText(client, handleType, h)
}
