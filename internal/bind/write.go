package bind

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// WriteColumn fills a bound output buffer with v, following the same layout
// DecodeColumn reads. In-process drivers use it to emulate the native fetch
// that rewrites bound buffers in place. Text longer than the buffer is
// truncated to whole UTF-16 units; the indicator always reports the byte
// length actually written (or the null sentinel).
func WriteColumn(b *cli.ColBinding, v any) error {
	if v == nil {
		*b.LenOrInd = cli.NullData
		return nil
	}

	switch b.ValueType {
	case cli.CLong:
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b.Buf[:4], uint32(int32(n)))
		*b.LenOrInd = 4
	case cli.CSBigInt:
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(b.Buf[:8], uint64(n))
		*b.LenOrInd = 8
	case cli.CDouble:
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case float32:
			f = float64(x)
		case int64:
			f = float64(x)
		default:
			return fmt.Errorf("tinyodbc: cannot write %T into a double buffer", v)
		}
		binary.LittleEndian.PutUint64(b.Buf[:8], math.Float64bits(f))
		*b.LenOrInd = 8
	case cli.CBit:
		switch x := v.(type) {
		case bool:
			if x {
				b.Buf[0] = 1
			} else {
				b.Buf[0] = 0
			}
		case int64:
			if x != 0 {
				b.Buf[0] = 1
			} else {
				b.Buf[0] = 0
			}
		default:
			return fmt.Errorf("tinyodbc: cannot write %T into a bit buffer", v)
		}
		*b.LenOrInd = 1
	case cli.CWChar:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprintf("%v", v)
		}
		enc, err := EncodeUTF16(s)
		if err != nil {
			return fmt.Errorf("tinyodbc: encode wide-char data: %w", err)
		}
		max := (len(b.Buf) - 2) &^ 1
		if len(enc) > max {
			enc = enc[:max]
		}
		n := copy(b.Buf, enc)
		b.Buf[n] = 0
		b.Buf[n+1] = 0
		*b.LenOrInd = int64(n)
	default:
		return fmt.Errorf("tinyodbc: cannot write into unknown value type %d", b.ValueType)
	}
	return nil
}

// ReadParameter decodes a bound parameter buffer back into a plain Go value,
// honoring the null-data and null-terminated-string sentinels. In-process
// drivers use it to recover the values the engine bound.
func ReadParameter(d *cli.ParamDesc) (any, error) {
	if d.LenOrInd != nil && *d.LenOrInd == cli.NullData {
		return nil, nil
	}

	switch d.ValueType {
	case cli.CLong:
		return int32(binary.LittleEndian.Uint32(d.Buf[:4])), nil
	case cli.CSBigInt:
		return int64(binary.LittleEndian.Uint64(d.Buf[:8])), nil
	case cli.CDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(d.Buf[:8])), nil
	case cli.CBit:
		return d.Buf[0] != 0, nil
	case cli.CWChar:
		raw := d.Buf
		if d.LenOrInd != nil && *d.LenOrInd == cli.NTS {
			if len(raw) >= 2 {
				raw = raw[:len(raw)-2] // drop the terminator
			}
		} else if d.LenOrInd != nil && *d.LenOrInd >= 0 && *d.LenOrInd <= int64(len(raw)) {
			raw = raw[:*d.LenOrInd]
		}
		return DecodeUTF16(raw)
	default:
		return nil, fmt.Errorf("tinyodbc: cannot read parameter of unknown value type %d", d.ValueType)
	}
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("tinyodbc: cannot write %T into an integer buffer", v)
	}
}
