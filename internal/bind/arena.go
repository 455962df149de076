package bind

import (
	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// Arena owns every buffer and indicator cell handed to the native driver for
// the duration of one statement execution. The driver retains only addresses,
// so a buffer must stay alive until the call that reads or writes it — and
// every subsequent fetch that reuses it — has completed. The arena is dropped
// exactly once at context teardown; Release is idempotent.
//
// An arena belongs to a single statement execution context and is never
// shared, so it is deliberately unsynchronized.
type Arena struct {
	params   []*cli.ParamDesc
	cols     []*cli.ColBinding
	bytes    int64
	released bool
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

// RetainParam takes ownership of a parameter descriptor's buffer.
func (a *Arena) RetainParam(d *cli.ParamDesc) {
	a.params = append(a.params, d)
	a.bytes += int64(len(d.Buf))
}

// RetainColumn takes ownership of a column binding's buffer.
func (a *Arena) RetainColumn(b *cli.ColBinding) {
	a.cols = append(a.cols, b)
	a.bytes += int64(len(b.Buf))
}

// Params returns the retained parameter descriptors in bind order.
func (a *Arena) Params() []*cli.ParamDesc { return a.params }

// Columns returns the retained column bindings in ordinal order.
func (a *Arena) Columns() []*cli.ColBinding { return a.cols }

// Bytes returns the total buffer memory currently retained.
func (a *Arena) Bytes() int64 { return a.bytes }

// Released reports whether the arena has been dropped.
func (a *Arena) Released() bool { return a.released }

// Release drops all retained buffers. Must only be called after the last
// native call that touches them has returned.
func (a *Arena) Release() {
	if a.released {
		return
	}
	a.released = true
	a.params = nil
	a.cols = nil
	a.bytes = 0
}
