package normalize

import (
	"math"
	"strconv"
	"strings"
)

// numberLike covers json.Number and similar decoder number types.
type numberLike interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// Int64 converts an integer-like value. Floats must be integral.
func Int64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float32:
		return integral(float64(t))
	case float64:
		return integral(t)
	case numberLike:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return integral(f)
		}
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return integral(f)
		}
	}
	return 0, false
}

// Float64 converts a numeric value. Bools are not numbers here.
func Float64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case numberLike:
		if f, err := t.Float64(); err == nil {
			return finite(f)
		}
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	}
	if i, ok := Int64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// IsNumeric reports whether v is a number type rather than text.
func IsNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, numberLike:
		return true
	}
	return false
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func Int64Ptr(v any) *int64 {
	if i, ok := Int64(v); ok {
		return &i
	}
	return nil
}

func Float64Ptr(v any) *float64 {
	if f, ok := Float64(v); ok {
		return &f
	}
	return nil
}
