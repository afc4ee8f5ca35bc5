package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// IsMissing reports whether v is a missing-value marker: nil or a float NaN.
func IsMissing(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(n)
	case float32:
		return math.IsNaN(float64(n))
	}
	return false
}

// ToFloat attempts to convert a numeric value to a float64.
// Strings are not coerced; missing values report false.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case decimal.Decimal:
		return v.InexactFloat64(), true
	}
	return 0, false
}

// ToInt attempts to convert a value to an int64, truncating floats toward zero
func ToInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return ToInt(float64(v))
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case decimal.Decimal:
		return v.IntPart(), true
	}
	return 0, false
}

// IsInteger reports whether v holds an integer kind
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint32, uint64:
		return true
	}
	return false
}

// ToBool converts a value to its truth value. Missing values are false.
func ToBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if f, ok := ToFloat(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// ToString converts any value to its string representation.
// Returns empty string for missing values.
func ToString(value any) string {
	if IsMissing(value) {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case map[string]any, []any:
		if bytes, err := json.Marshal(v); err == nil {
			return string(bytes)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseCell infers the type of a textual cell: empty is missing, then
// integer, float, boolean, and finally string.
func ParseCell(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	return s
}
