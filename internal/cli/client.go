package cli

import "context"

// ExecInfo is the outcome of a direct execution: how many result columns the
// statement produced and how many rows it affected. Affected is negative when
// the driver cannot tell (typical for row-returning statements).
type ExecInfo struct {
	ColumnCount  int
	AffectedRows int64
}

// Client is the native call-level interface consumed by the statement engine.
// It is a thin pass-through to the underlying driver: implementations keep no
// statement state beyond what the handles identify, and they retain only the
// addresses of bound buffers, never copies.
//
// Long-running operations take a context and must not outlive it except for
// teardown calls, which are issued with a background context so cleanup runs
// even after cancellation. Calls on one statement handle are never issued
// concurrently.
type Client interface {
	// Connect opens a connection for the given data source name.
	Connect(ctx context.Context, dsn string) (Handle, Status)

	// Disconnect closes a connection handle.
	Disconnect(ctx context.Context, conn Handle) Status

	// AllocStatement allocates a statement handle scoped to a connection.
	AllocStatement(ctx context.Context, conn Handle) (Handle, Status)

	// FreeStatement releases a statement handle and all driver-side state
	// attached to it.
	FreeStatement(ctx context.Context, stmt Handle) Status

	// BindParameter associates the descriptor's buffer with the 1-based
	// placeholder position. The driver reads the buffer during ExecDirect.
	BindParameter(stmt Handle, position int, desc *ParamDesc) Status

	// ExecDirect executes the SQL text in a single round trip.
	ExecDirect(ctx context.Context, stmt Handle, query string) (ExecInfo, Status)

	// DescribeColumn introspects the 1-based result column.
	DescribeColumn(stmt Handle, ordinal int) (ColumnDesc, Status)

	// BindColumn associates the binding's buffer with the 1-based result
	// column. Every subsequent Fetch rewrites the buffer in place.
	BindColumn(stmt Handle, ordinal int, binding *ColBinding) Status

	// Fetch advances the cursor one row, populating all bound column
	// buffers. Returns NoData when the result set is exhausted.
	Fetch(ctx context.Context, stmt Handle) Status

	// DiagRec returns the recNumber-th (1-based) diagnostic record for the
	// handle, or NoData when no more records exist. Must never fail in a way
	// that masks the original error.
	DiagRec(handleType int16, h Handle, recNumber int) (DiagRec, Status)
}
