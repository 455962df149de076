package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
	"github.com/SimonWaldherr/tinyODBC/internal/climock"
)

func numberedMock(n int) *climock.Mock {
	m := climock.New()
	m.Columns = []cli.ColumnDesc{
		{Name: "n", DataType: cli.TypeInteger, Size: 10},
		{Name: "label", DataType: cli.TypeWVarChar, Size: 16},
	}
	for i := 1; i <= n; i++ {
		m.Rows = append(m.Rows, []any{int64(i), fmt.Sprintf("row-%d", i)})
	}
	return m
}

func drain(t *testing.T, cs *Chunks) []Chunk {
	t.Helper()
	var chunks []Chunk
	for cs.Next() {
		chunks = append(chunks, cs.Chunk())
	}
	return chunks
}

func TestStreamChunkSizes(t *testing.T) {
	cases := []struct {
		rows, size int
		want       []int // rows per chunk
	}{
		{7, 3, []int{3, 3, 1}},
		{6, 3, []int{3, 3}},
		{2, 5, []int{2}},
		{1, 1, []int{1}},
		{0, 4, nil}, // empty result set yields no chunks
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%drows_by_%d", c.rows, c.size), func(t *testing.T) {
			m := numberedMock(c.rows)
			conn := connect(t, m)
			cs, err := Stream(context.Background(), m, conn, Statement{SQL: "SELECT n, label FROM t"}, c.size)
			if err != nil {
				t.Fatalf("Stream failed: %v", err)
			}
			chunks := drain(t, cs)
			if cs.Err() != nil {
				t.Fatalf("stream error: %v", cs.Err())
			}
			if len(chunks) != len(c.want) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(c.want))
			}
			for i, n := range c.want {
				if len(chunks[i].Rows) != n {
					t.Errorf("chunk %d has %d rows, want %d", i, len(chunks[i].Rows), n)
				}
			}
			if m.FreeCount != 1 {
				t.Errorf("statement handle freed %d times, want exactly once", m.FreeCount)
			}
		})
	}
}

func TestStreamMatchesExecute(t *testing.T) {
	// Concatenating the chunks reproduces the eager result exactly.
	exec := numberedMock(10)
	conn := connect(t, exec)
	res, err := Execute(context.Background(), exec, conn, Statement{SQL: "SELECT n, label FROM t"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	stream := numberedMock(10)
	conn = connect(t, stream)
	cs, err := Stream(context.Background(), stream, conn, Statement{SQL: "SELECT n, label FROM t"}, 4)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if got := cs.Columns(); len(got) != 2 || got[0] != "n" || got[1] != "label" {
		t.Fatalf("stream columns = %v", got)
	}
	var streamed []Row
	for _, c := range drain(t, cs) {
		streamed = append(streamed, c.Rows...)
	}
	if cs.Err() != nil {
		t.Fatalf("stream error: %v", cs.Err())
	}
	if len(streamed) != len(res.Rows) {
		t.Fatalf("streamed %d rows, executed %d", len(streamed), len(res.Rows))
	}
	for i := range streamed {
		for k, v := range res.Rows[i] {
			if streamed[i][k] != v {
				t.Errorf("row %d key %s: stream %v, execute %v", i, k, streamed[i][k], v)
			}
		}
	}
}

func TestStreamInvalidChunkSize(t *testing.T) {
	// The size is validated before any native call is made.
	for _, size := range []int{0, -1} {
		m := numberedMock(3)
		conn := connect(t, m)
		preCalls := len(m.Calls)
		if _, err := Stream(context.Background(), m, conn, Statement{SQL: "SELECT n FROM t"}, size); err == nil {
			t.Fatalf("chunk size %d accepted", size)
		}
		if len(m.Calls) != preCalls {
			t.Errorf("chunk size %d issued native calls: %v", size, m.Calls[preCalls:])
		}
	}
}

func TestStreamZeroColumns(t *testing.T) {
	// Statements without a result set still produce exactly one empty chunk
	// so callers observe completion.
	m := climock.New()
	m.Affected = 2
	conn := connect(t, m)

	cs, err := Stream(context.Background(), m, conn, Statement{SQL: "UPDATE t SET x = 1"}, 8)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	chunks := drain(t, cs)
	if cs.Err() != nil {
		t.Fatalf("stream error: %v", cs.Err())
	}
	if len(chunks) != 1 || len(chunks[0].Rows) != 0 {
		t.Fatalf("chunks = %v, want a single empty chunk", chunks)
	}
	if m.FreeCount != 1 {
		t.Errorf("statement handle freed %d times, want exactly once", m.FreeCount)
	}
}

func TestStreamFetchFailure(t *testing.T) {
	m := numberedMock(6)
	m.FailFetchAt = 4
	m.Diags = []cli.DiagRec{{State: "HY000", Message: "connection lost"}}
	conn := connect(t, m)

	cs, err := Stream(context.Background(), m, conn, Statement{SQL: "SELECT n, label FROM t"}, 3)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	chunks := drain(t, cs)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks before the failure, want 1", len(chunks))
	}
	if !errors.Is(cs.Err(), ErrFetch) {
		t.Fatalf("stream error = %v, want ErrFetch", cs.Err())
	}
	// Cleanup ran before the error was surfaced.
	if m.FreeCount != 1 {
		t.Errorf("statement handle freed %d times, want exactly once", m.FreeCount)
	}
}

func TestStreamEarlyClose(t *testing.T) {
	m := numberedMock(20)
	conn := connect(t, m)

	cs, err := Stream(context.Background(), m, conn, Statement{SQL: "SELECT n, label FROM t"}, 5)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if !cs.Next() {
		t.Fatalf("first chunk unavailable: %v", cs.Err())
	}
	if err := cs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if m.FreeCount != 1 {
		t.Fatalf("statement handle freed %d times after Close, want exactly once", m.FreeCount)
	}
	if cs.Next() {
		t.Error("Next returned true after Close")
	}
	if err := cs.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if m.FreeCount != 1 {
		t.Errorf("second Close freed the handle again (count %d)", m.FreeCount)
	}
}

func TestStreamNextAfterExhaustion(t *testing.T) {
	m := numberedMock(2)
	conn := connect(t, m)

	cs, err := Stream(context.Background(), m, conn, Statement{SQL: "SELECT n, label FROM t"}, 10)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	drain(t, cs)
	for i := 0; i < 3; i++ {
		if cs.Next() {
			t.Fatalf("Next returned true on drained stream (call %d)", i)
		}
	}
	if m.FreeCount != 1 {
		t.Errorf("statement handle freed %d times, want exactly once", m.FreeCount)
	}
}
