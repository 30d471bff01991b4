package query

import (
	"strconv"
	"strings"
)

// StringPtr returns a pointer to s, for Condition.Like and Condition.ILike.
func StringPtr(s string) *string {
	return &s
}

// ToFloat64 converts numeric values, and strings holding numbers, to
// float64.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToBool converts booleans, 0/1 integers as stored by SQLite, and
// "true"/"false" strings.
func ToBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int64:
		return val != 0, val == 0 || val == 1
	case int:
		return val != 0, val == 0 || val == 1
	case string:
		b, err := strconv.ParseBool(val)
		return b, err == nil
	}
	return false, false
}
