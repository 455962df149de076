package bind

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// DecodeColumn copies the current contents of one bound output buffer into an
// owned Go value. The driver rewrites the buffer on every fetch, so the
// result never aliases it.
//
// The indicator cell decides first: the null-data sentinel yields nil
// regardless of native type. Wide-character data decodes exactly
// indicator/2 UTF-16 units — the indicator holds the actual data length for
// this fetch, which may be shorter than the allocated buffer. An unknown
// value type or a negative non-sentinel indicator is a driver-contract
// violation and fails with ErrDecode.
func DecodeColumn(b *cli.ColBinding) (any, error) {
	ind := *b.LenOrInd
	if ind == cli.NullData {
		return nil, nil
	}

	switch b.ValueType {
	case cli.CLong:
		return int32(binary.LittleEndian.Uint32(b.Buf[:4])), nil
	case cli.CSBigInt:
		return int64(binary.LittleEndian.Uint64(b.Buf[:8])), nil
	case cli.CDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b.Buf[:8])), nil
	case cli.CBit:
		return b.Buf[0] != 0, nil
	case cli.CWChar:
		if ind < 0 {
			return nil, fmt.Errorf("tinyodbc: wide-char indicator %d: %w", ind, ErrDecode)
		}
		n := ind &^ 1 // whole UTF-16 units only
		if n > int64(len(b.Buf)) {
			n = int64(len(b.Buf))
		}
		s, err := DecodeUTF16(b.Buf[:n])
		if err != nil {
			return nil, fmt.Errorf("tinyodbc: decode wide-char data: %v: %w", err, ErrDecode)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("tinyodbc: indicator %d with unknown value type %d: %w",
			ind, b.ValueType, ErrDecode)
	}
}
