package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/elphick/df-eval/ecode"
	"github.com/shopspring/decimal"
)

// Supported dtype names
const (
	DTypeInt     = "int"
	DTypeFloat   = "float"
	DTypeString  = "string"
	DTypeBool    = "bool"
	DTypeDecimal = "decimal"
)

// NormalizeDType maps dtype aliases to their canonical name
func NormalizeDType(dtype string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(dtype)) {
	case "int", "int64", "int32", "integer":
		return DTypeInt, true
	case "float", "float64", "float32", "double", "number":
		return DTypeFloat, true
	case "string", "str", "text":
		return DTypeString, true
	case "bool", "boolean":
		return DTypeBool, true
	case "decimal", "numeric":
		return DTypeDecimal, true
	}
	return "", false
}

// Cast converts every value of a series to dtype. Missing values stay
// missing except for int, which has no missing representation.
func Cast(column string, s Series, dtype string) (Series, error) {
	canonical, ok := NormalizeDType(dtype)
	if !ok {
		return nil, &ecode.TypeCastError{Column: column, DType: dtype, Row: -1, Reason: "unsupported dtype"}
	}

	out := make(Series, len(s))
	for i, v := range s {
		cast, err := castValue(v, canonical)
		if err != nil {
			return nil, &ecode.TypeCastError{Column: column, DType: canonical, Row: i, Value: v, Reason: err.Error()}
		}
		out[i] = cast
	}
	return out, nil
}

func castValue(v any, dtype string) (any, error) {
	if IsMissing(v) {
		if dtype == DTypeInt {
			return nil, fmt.Errorf("missing value has no integer representation")
		}
		if dtype == DTypeFloat {
			return math.NaN(), nil
		}
		return nil, nil
	}

	switch dtype {
	case DTypeInt:
		if s, ok := v.(string); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", s)
			}
			return n, nil
		}
		if n, ok := ToInt(v); ok {
			return n, nil
		}
	case DTypeFloat:
		if s, ok := v.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid float %q", s)
			}
			return f, nil
		}
		if f, ok := ToFloat(v); ok {
			return f, nil
		}
	case DTypeString:
		return ToString(v), nil
	case DTypeBool:
		if s, ok := v.(string); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("invalid boolean %q", s)
			}
			return b, nil
		}
		return ToBool(v), nil
	case DTypeDecimal:
		switch n := v.(type) {
		case decimal.Decimal:
			return n, nil
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(n))
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q", n)
			}
			return d, nil
		}
		if IsInteger(v) {
			n, _ := ToInt(v)
			return decimal.NewFromInt(n), nil
		}
		if f, ok := ToFloat(v); ok {
			if math.IsInf(f, 0) {
				return nil, fmt.Errorf("infinite value has no decimal representation")
			}
			return decimal.NewFromFloat(f), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T", v)
}
