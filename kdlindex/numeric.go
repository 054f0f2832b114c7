package kdlindex

import (
	"strconv"
	"strings"

	"github.com/kdldoc/kdldoc/kdltok"
)

// Numeric is the set of Go types TryGetNumber can decode a Number token
// into. The teacher predates generics (go 1.14); this is the idiomatic
// modern-Go rendering of the numeric descriptor family spec.md's design
// notes describe — one generic accessor instead of a per-type method for
// every integer width.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// TryGetNumber decodes a Number element as T. The bool result is false
// (with a nil error) when the token's text cannot be represented exactly
// as T — e.g. a fractional literal requested as an integer type, or a
// value outside T's range — matching try_get_value<T>'s contract of
// reporting representability, not raising an error, for those cases.
func TryGetNumber[T Numeric](e Element) (T, bool, error) {
	var zero T
	row, err := e.row()
	if err != nil {
		return zero, false, err
	}
	if row.Kind() != kdltok.Number {
		return zero, false, newError(ErrWrongKind, "TryGetNumber requires a number element")
	}
	raw, err := e.GetRawValue(false)
	if err != nil {
		return zero, false, err
	}
	s := unsafeBytesToString(raw)

	switch any(zero).(type) {
	case float32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return zero, false, nil
		}
		return T(f), true, nil
	case float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, false, nil
		}
		return T(f), true, nil
	}

	if strings.ContainsAny(s, ".eE") {
		return zero, false, nil
	}

	bits := integerBitSize(zero)
	switch any(zero).(type) {
	case uint, uint8, uint16, uint32, uint64:
		u, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			return zero, false, nil
		}
		return T(u), true, nil
	default:
		i, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return zero, false, nil
		}
		return T(i), true, nil
	}
}

// The numeric descriptor family (spec §9 design note) as a fixed set of
// named entry points, each delegating to the one generic TryGetNumber.
func TryGetInt8(e Element) (int8, bool, error)     { return TryGetNumber[int8](e) }
func TryGetInt16(e Element) (int16, bool, error)   { return TryGetNumber[int16](e) }
func TryGetInt32(e Element) (int32, bool, error)   { return TryGetNumber[int32](e) }
func TryGetInt64(e Element) (int64, bool, error)   { return TryGetNumber[int64](e) }
func TryGetUint8(e Element) (uint8, bool, error)   { return TryGetNumber[uint8](e) }
func TryGetUint16(e Element) (uint16, bool, error) { return TryGetNumber[uint16](e) }
func TryGetUint32(e Element) (uint32, bool, error) { return TryGetNumber[uint32](e) }
func TryGetUint64(e Element) (uint64, bool, error) { return TryGetNumber[uint64](e) }
func TryGetFloat32(e Element) (float32, bool, error) { return TryGetNumber[float32](e) }
func TryGetFloat64(e Element) (float64, bool, error) { return TryGetNumber[float64](e) }

func integerBitSize(zero any) int {
	switch zero.(type) {
	case int8, uint8:
		return 8
	case int16, uint16:
		return 16
	case int32, uint32:
		return 32
	case int64, uint64:
		return 64
	default: // int, uint: platform width
		return 0
	}
}

// TryGetBool decodes a True/False element.
func TryGetBool(e Element) (bool, error) {
	row, err := e.row()
	if err != nil {
		return false, err
	}
	switch row.Kind() {
	case kdltok.True:
		return true, nil
	case kdltok.False:
		return false, nil
	default:
		return false, newError(ErrWrongKind, "TryGetBool requires a boolean element")
	}
}

// IsNull reports whether the element is a Null token.
func (e Element) IsNull() (bool, error) {
	row, err := e.row()
	if err != nil {
		return false, err
	}
	return row.Kind() == kdltok.Null, nil
}
