package bind

import (
	"errors"
	"testing"

	"github.com/SimonWaldherr/tinyODBC/internal/cli"
)

func TestColumnSizeValidation(t *testing.T) {
	cases := []struct {
		name string
		size int64
		ok   bool
	}{
		{"zero", 0, false},
		{"negative", -1, false},
		{"one", 1, true},
		{"max", cli.MaxBindSize, true},
		{"over_max", cli.MaxBindSize + 1, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Column(cli.ColumnDesc{Ordinal: 1, Name: "v", DataType: cli.TypeVarChar, Size: c.size})
			if c.ok && err != nil {
				t.Fatalf("size %d rejected: %v", c.size, err)
			}
			if !c.ok && !errors.Is(err, ErrBind) {
				t.Fatalf("size %d error = %v, want ErrBind", c.size, err)
			}
		})
	}
}

func TestColumnBufferShapes(t *testing.T) {
	cases := []struct {
		name      string
		dataType  int16
		size      int64
		wantType  int16
		wantBytes int64
	}{
		{"integer", cli.TypeInteger, 10, cli.CLong, 4},
		{"smallint", cli.TypeSmallInt, 5, cli.CLong, 4},
		{"bigint", cli.TypeBigInt, 19, cli.CSBigInt, 8},
		{"double", cli.TypeDouble, 15, cli.CDouble, 8},
		{"decimal", cli.TypeDecimal, 12, cli.CDouble, 8},
		{"bit", cli.TypeBit, 1, cli.CBit, 1},
		{"boolean", cli.TypeBoolean, 1, cli.CBit, 1},
		{"varchar", cli.TypeVarChar, 5, cli.CWChar, 12}, // (5+1) UTF-16 slots
		{"wlongvarchar", cli.TypeWLongVarChar, 100, cli.CWChar, 202},
		{"timestamp", cli.TypeTimestamp, 23, cli.CWChar, cli.TimestampChars * 2},
		{"date", cli.TypeDate, 10, cli.CWChar, cli.TimestampChars * 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := Column(cli.ColumnDesc{Ordinal: 1, Name: c.name, DataType: c.dataType, Size: c.size})
			if err != nil {
				t.Fatalf("Column failed: %v", err)
			}
			if b.ValueType != c.wantType {
				t.Errorf("value type = %d, want %d", b.ValueType, c.wantType)
			}
			if b.BufLen != c.wantBytes || int64(len(b.Buf)) != c.wantBytes {
				t.Errorf("buffer = %d bytes, want %d", b.BufLen, c.wantBytes)
			}
			if b.LenOrInd == nil || *b.LenOrInd != 0 {
				t.Errorf("indicator cell not zero-initialized: %v", b.LenOrInd)
			}
		})
	}
}

func TestColumnUnsupportedType(t *testing.T) {
	_, err := Column(cli.ColumnDesc{Ordinal: 3, Name: "g", DataType: -11, Size: 36})
	if !errors.Is(err, ErrBind) {
		t.Fatalf("unsupported type error = %v, want ErrBind", err)
	}
}
