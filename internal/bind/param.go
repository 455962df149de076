package bind

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// Parameter maps one dynamic value to a native parameter descriptor. The
// mapping is deterministic and performs no native calls:
//
//   - NULL: zero-length buffer, indicator carries the null-data sentinel.
//     The type codes are placeholders; the indicator alone signals NULL.
//   - INT32: 4-byte signed integer buffer, fixed-width semantics.
//   - INT64: 8-byte signed integer buffer.
//   - FLOAT64: 8-byte double buffer.
//   - BOOL: 1-byte bit buffer holding 0 or 1.
//   - TEXT: UTF-16LE buffer plus a terminating zero unit; the declared size
//     is the character count, and the indicator carries the
//     null-terminated-string sentinel instead of a byte count.
func Parameter(v Value) (*cli.ParamDesc, error) {
	switch v.kind {
	case KindNull:
		ind := cli.NullData
		return &cli.ParamDesc{
			ValueType: cli.CDefault,
			ParamType: cli.TypeVarChar,
			LenOrInd:  &ind,
		}, nil

	case KindInt32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(v.i)))
		ind := int64(4)
		return &cli.ParamDesc{
			ValueType: cli.CLong,
			ParamType: cli.TypeInteger,
			Buf:       buf,
			BufLen:    4,
			LenOrInd:  &ind,
		}, nil

	case KindInt64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v.i))
		ind := int64(8)
		return &cli.ParamDesc{
			ValueType: cli.CSBigInt,
			ParamType: cli.TypeBigInt,
			Buf:       buf,
			BufLen:    8,
			LenOrInd:  &ind,
		}, nil

	case KindFloat64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.f))
		ind := int64(8)
		return &cli.ParamDesc{
			ValueType: cli.CDouble,
			ParamType: cli.TypeDouble,
			Buf:       buf,
			BufLen:    8,
			LenOrInd:  &ind,
		}, nil

	case KindBool:
		buf := make([]byte, 1)
		if v.b {
			buf[0] = 1
		}
		ind := int64(1)
		return &cli.ParamDesc{
			ValueType: cli.CBit,
			ParamType: cli.TypeBit,
			Buf:       buf,
			BufLen:    1,
			LenOrInd:  &ind,
		}, nil

	case KindText:
		enc, err := EncodeUTF16(v.s)
		if err != nil {
			return nil, fmt.Errorf("tinyodbc: encode text parameter: %w", err)
		}
		units := len(enc) / 2
		buf := append(enc, 0, 0) // terminating zero unit
		ind := cli.NTS
		return &cli.ParamDesc{
			ValueType:  cli.CWChar,
			ParamType:  cli.TypeWVarChar,
			Buf:        buf,
			ColumnSize: int64(units),
			BufLen:     int64(len(buf)),
			LenOrInd:   &ind,
		}, nil

	default:
		return nil, fmt.Errorf("tinyodbc: parameter kind %v: %w", v.kind, ErrUnsupportedValueType)
	}
}
