// Package cli defines the native call-level interface the statement engine
// drives: handle and status vocabulary, SQL/C type codes, length-indicator
// sentinels, and the buffer descriptor shapes shared between the engine and
// the drivers that implement the interface.
//
// The constant values mirror the ODBC 3.x wire conventions so a cgo-backed
// implementation can pass them straight through to a platform driver manager.
package cli

// Handle identifies one native resource (environment, connection or
// statement). Zero is the null handle.
type Handle uintptr

// NullHandle is the invalid/absent handle value.
const NullHandle Handle = 0

// Handle type identifiers, as passed to diagnostic retrieval.
const (
	HandleEnv  int16 = 1
	HandleDbc  int16 = 2
	HandleStmt int16 = 3
)

// Status is the return code of a native call.
type Status int16

const (
	Success         Status = 0
	SuccessWithInfo Status = 1
	StatusError     Status = -1
	InvalidHandle   Status = -2
	NoData          Status = 100
)

// OK reports whether the call completed, with or without diagnostic info.
func (s Status) OK() bool { return s == Success || s == SuccessWithInfo }

func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case SuccessWithInfo:
		return "SUCCESS_WITH_INFO"
	case StatusError:
		return "ERROR"
	case InvalidHandle:
		return "INVALID_HANDLE"
	case NoData:
		return "NO_DATA"
	default:
		return "UNKNOWN"
	}
}

// Length/indicator sentinels. The indicator cell either carries one of these
// or the actual byte length of the data written into the bound buffer.
const (
	NullData int64 = -1 // value is NULL; buffer contents are meaningless
	NTS      int64 = -3 // buffer holds a zero-terminated string
)

// MaxBindSize is the largest column buffer the engine will bind, in bytes.
const MaxBindSize = 64 * 1024

// TimestampChars is the fixed UTF-16 unit count reserved for date/timestamp
// text ("YYYY-MM-DD HH:MM:SS.fffffffff" fits with room for the terminator).
const TimestampChars = 30

// SQL data type codes as reported by column introspection.
const (
	TypeChar         int16 = 1
	TypeNumeric      int16 = 2
	TypeDecimal      int16 = 3
	TypeInteger      int16 = 4
	TypeSmallInt     int16 = 5
	TypeFloat        int16 = 6
	TypeReal         int16 = 7
	TypeDouble       int16 = 8
	TypeDatetime     int16 = 9
	TypeVarChar      int16 = 12
	TypeBoolean      int16 = 16
	TypeDate         int16 = 91
	TypeTime         int16 = 92
	TypeTimestamp    int16 = 93
	TypeLongVarChar  int16 = -1
	TypeBigInt       int16 = -5
	TypeTinyInt      int16 = -6
	TypeBit          int16 = -7
	TypeWChar        int16 = -8
	TypeWVarChar     int16 = -9
	TypeWLongVarChar int16 = -10
)

// C value type codes describing the in-memory layout of a bound buffer.
const (
	CLong    int16 = 4   // 4-byte signed integer
	CDouble  int16 = 8   // 8-byte IEEE double
	CDefault int16 = 99  // driver picks; used for NULL parameters
	CSBigInt int16 = -25 // 8-byte signed integer
	CBit     int16 = -7  // 1-byte 0/1
	CWChar   int16 = -8  // UTF-16 code units
)

// ParamDesc describes one bound input parameter. The engine owns Buf and
// LenOrInd for the whole statement execution; the driver only reads them.
type ParamDesc struct {
	ValueType     int16 // C type of Buf
	ParamType     int16 // SQL type of the target placeholder
	Buf           []byte
	ColumnSize    int64 // declared size in characters; 0 for fixed-width types
	DecimalDigits int16
	BufLen        int64
	LenOrInd      *int64
}

// ColumnDesc is the introspected shape of one result column.
type ColumnDesc struct {
	Ordinal  int
	Name     string
	DataType int16
	Size     int64 // declared column size in characters
}

// ColBinding is one bound output buffer. The driver rewrites Buf and
// LenOrInd in place on every fetch; consumers must copy values out before
// the next fetch.
type ColBinding struct {
	ValueType int16
	Buf       []byte
	BufLen    int64
	LenOrInd  *int64
}

// DiagRec is one diagnostic record attached to a handle after a failed call.
type DiagRec struct {
	State   string // five-character SQLSTATE
	Native  int32
	Message string
}
