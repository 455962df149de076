package engine

import (
	"context"
	"fmt"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// Chunk is one emitted batch of rows.
type Chunk struct {
	Rows []Row
}

// Chunks is a lazy, finite, non-restartable sequence of row chunks produced
// by Stream. Usage mirrors sql.Rows:
//
//	cs, err := engine.Stream(ctx, client, conn, st, 256)
//	if err != nil { ... }
//	defer cs.Close()
//	for cs.Next() {
//	    use(cs.Chunk())
//	}
//	if err := cs.Err(); err != nil { ... }
//
// The statement context is torn down exactly once: on exhaustion, on a fetch
// failure, or on Close when the consumer abandons the sequence early.
type Chunks struct {
	ctx      context.Context
	ex       *execContext
	size     int
	cols     []string
	cur      Chunk
	err      error
	done     bool
	zeroCols bool
}

// Stream runs one compiled statement and yields its rows in chunks of
// chunkSize. chunkSize must be a positive integer; anything else fails
// before any native call is made. A statement without result columns yields
// exactly one empty chunk.
func Stream(ctx context.Context, client cli.Client, conn cli.Handle, st Statement, chunkSize int) (*Chunks, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("tinyodbc: stream chunk size %d: must be a positive integer", chunkSize)
	}

	ex, err := newExecContext(ctx, client, conn, st)
	if err != nil {
		return nil, err
	}

	info, err := ex.execDirect(ctx, st.SQL)
	if err != nil {
		ex.close()
		return nil, err
	}

	cs := &Chunks{ctx: ctx, ex: ex, size: chunkSize}
	if info.ColumnCount == 0 {
		cs.zeroCols = true
		return cs, nil
	}

	if err := ex.bindColumns(info.ColumnCount); err != nil {
		ex.close()
		return nil, err
	}
	cs.cols = ex.keys
	return cs, nil
}

// Next advances to the next chunk. It returns false when the sequence is
// exhausted or failed; consult Err afterwards.
func (c *Chunks) Next() bool {
	if c.done {
		return false
	}

	if c.zeroCols {
		c.cur = Chunk{Rows: []Row{}}
		c.finish(nil)
		return true
	}

	rows := make([]Row, 0, c.size)
	for len(rows) < c.size {
		row, ok, err := c.ex.fetchRow(c.ctx)
		if err != nil {
			c.finish(err)
			return false
		}
		if !ok {
			if len(rows) == 0 {
				c.finish(nil)
				return false
			}
			c.cur = Chunk{Rows: rows}
			c.finish(nil)
			return true
		}
		rows = append(rows, row)
	}
	c.cur = Chunk{Rows: rows}
	return true
}

// Chunk returns the chunk produced by the last successful Next.
func (c *Chunks) Chunk() Chunk { return c.cur }

// Columns returns the result column keys, in ordinal order. Empty for a
// statement without result columns.
func (c *Chunks) Columns() []string { return c.cols }

// Err returns the error that terminated the sequence, if any. It is set only
// after the statement context has been torn down.
func (c *Chunks) Err() error { return c.err }

// Close tears down the statement context. It is safe to call at any time and
// more than once; a consumer that stops pulling before exhaustion must call
// it to free the handle and buffers.
func (c *Chunks) Close() error {
	if !c.done {
		c.finish(nil)
	}
	return nil
}

// finish tears down the context first and only then records the error, so a
// failure is surfaced strictly after cleanup has run.
func (c *Chunks) finish(err error) {
	c.ex.close()
	c.done = true
	if c.err == nil {
		c.err = err
	}
}
