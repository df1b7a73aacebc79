package column

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/gingi/ibis/bitvector"
)

// WriteComputed writes nRows values to col's data file for a column freshly
// computed by the partition engine's add_column operation: row i gets
// cast(values[i]) when mask has bit i set, and NullSentinel[T]() otherwise
// (spec.md §4.D "add_column" steps 2-3). Values that overflow or underflow
// an integer destination also fall back to the sentinel, mirroring the
// original's castAndWrite. Only fixed-width destination types are
// supported, matching parti.cpp's addColumn switch (DOUBLE/FLOAT/ULONG/
// LONG/UINT/INT/USHORT/SHORT/UBYTE/BYTE; no category/text/blob
// destination).
func WriteComputed(col Column, nRows uint32, mask bitvector.BitVector, values []float64) (int64, error) {
	switch c := col.(type) {
	case *FixedWidth[int8]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[uint8]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[int16]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[uint16]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[int32]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[uint32]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[int64]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[uint64]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[float32]:
		return writeComputed(c, nRows, mask, values)
	case *FixedWidth[float64]:
		return writeComputed(c, nRows, mask, values)
	default:
		return -1, fmt.Errorf("column %s: add_column destination type %v does not accept computed values", col.Name(), col.Type())
	}
}

func writeComputed[T Numeric](c *FixedWidth[T], nRows uint32, mask bitvector.BitVector, values []float64) (int64, error) {
	out, err := os.Create(dataPath(c.dir, c.name))
	if err != nil {
		return -1, fmt.Errorf("column %s: create: %w", c.name, err)
	}
	defer out.Close()

	buf := make([]T, nRows)
	for i := uint32(0); i < nRows; i++ {
		set, err := mask.Test(i)
		if err != nil {
			return -1, fmt.Errorf("column %s: mask row %d: %w", c.name, i, err)
		}
		if !set || int(i) >= len(values) {
			buf[i] = NullSentinel[T]()
			continue
		}
		cast, ok := castNumeric[T](values[i])
		if !ok {
			buf[i] = NullSentinel[T]()
			continue
		}
		buf[i] = cast
		c.updateBounds(float64(cast))
	}
	if err := binary.Write(out, binary.LittleEndian, buf); err != nil {
		return -1, fmt.Errorf("column %s: short write: %w", c.name, err)
	}
	return int64(nRows), nil
}

// castNumeric casts v to T, reporting ok=false when v is NaN/Inf against an
// integer destination or falls outside T's representable range (the caller
// substitutes NullSentinel[T]() in that case).
func castNumeric[T Numeric](v float64) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return T(v), true
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return zero, false
	}
	switch any(zero).(type) {
	case int8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return zero, false
		}
	case uint8:
		if v < 0 || v > math.MaxUint8 {
			return zero, false
		}
	case int16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return zero, false
		}
	case uint16:
		if v < 0 || v > math.MaxUint16 {
			return zero, false
		}
	case int32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return zero, false
		}
	case uint32:
		if v < 0 || v > math.MaxUint32 {
			return zero, false
		}
	case int64:
		if v < math.MinInt64 || v > math.MaxInt64 {
			return zero, false
		}
	case uint64:
		if v < 0 || v > math.MaxUint64 {
			return zero, false
		}
	}
	return T(v), true
}
