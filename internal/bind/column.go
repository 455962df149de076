package bind

import (
	"fmt"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

// Column maps an introspected column descriptor to an output buffer binding.
// The declared size must lie in (0, MaxBindSize]; oversized or zero-size
// columns fail here rather than being silently truncated later. Text buffers
// reserve one extra UTF-16 slot for the terminator; date/timestamp columns
// get a fixed 30-slot buffer regardless of the declared size.
func Column(desc cli.ColumnDesc) (*cli.ColBinding, error) {
	if desc.Size <= 0 || desc.Size > cli.MaxBindSize {
		return nil, fmt.Errorf("tinyodbc: column %q (ordinal %d): declared size %d out of range (0, %d]: %w",
			desc.Name, desc.Ordinal, desc.Size, cli.MaxBindSize, ErrBind)
	}

	var valueType int16
	var buf []byte
	switch desc.DataType {
	case cli.TypeInteger, cli.TypeSmallInt, cli.TypeTinyInt:
		valueType, buf = cli.CLong, make([]byte, 4)
	case cli.TypeBigInt:
		valueType, buf = cli.CSBigInt, make([]byte, 8)
	case cli.TypeFloat, cli.TypeReal, cli.TypeDouble, cli.TypeDecimal, cli.TypeNumeric:
		valueType, buf = cli.CDouble, make([]byte, 8)
	case cli.TypeBit, cli.TypeBoolean:
		valueType, buf = cli.CBit, make([]byte, 1)
	case cli.TypeChar, cli.TypeVarChar, cli.TypeLongVarChar,
		cli.TypeWChar, cli.TypeWVarChar, cli.TypeWLongVarChar:
		valueType, buf = cli.CWChar, make([]byte, (desc.Size+1)*2)
	case cli.TypeDate, cli.TypeTime, cli.TypeDatetime, cli.TypeTimestamp:
		valueType, buf = cli.CWChar, make([]byte, cli.TimestampChars*2)
	default:
		return nil, fmt.Errorf("tinyodbc: column %q (ordinal %d): unsupported native type %d: %w",
			desc.Name, desc.Ordinal, desc.DataType, ErrBind)
	}

	return &cli.ColBinding{
		ValueType: valueType,
		Buf:       buf,
		BufLen:    int64(len(buf)),
		LenOrInd:  new(int64),
	}, nil
}
