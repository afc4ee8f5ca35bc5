package evaluator

import (
	"fmt"
	"math"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/table"
	"github.com/shopspring/decimal"
)

func opError(op string, format string, args ...any) error {
	return &ecode.FunctionCallError{Function: "operator " + op, Message: fmt.Sprintf(format, args...)}
}

// binary applies op to one row. Arithmetic with a missing operand is
// missing, comparison with a missing operand is false.
func binary(op string, l, r any) (any, error) {
	switch op {
	case "and":
		return table.ToBool(l) && table.ToBool(r), nil
	case "or":
		return table.ToBool(l) || table.ToBool(r), nil
	case "==", "!=", "<", "<=", ">", ">=":
		return compare(op, l, r)
	}

	if table.IsMissing(l) || table.IsMissing(r) {
		return nil, nil
	}

	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok && op == "+" {
			return ls + rs, nil
		}
	}

	_, ld := l.(decimal.Decimal)
	_, rd := r.(decimal.Decimal)
	if (ld || rd) && op != "**" && op != "%" {
		return decimalArith(op, l, r)
	}

	if table.IsInteger(l) && table.IsInteger(r) {
		a, _ := table.ToInt(l)
		b, _ := table.ToInt(r)
		return intArith(op, a, b), nil
	}

	a, ok := table.ToFloat(l)
	if !ok {
		return nil, opError(op, "unsupported operand type %T", l)
	}
	b, ok := table.ToFloat(r)
	if !ok {
		return nil, opError(op, "unsupported operand type %T", r)
	}
	return floatArith(op, a, b), nil
}

// intArith keeps integer results while they fit in int64 and falls back
// to float64 on overflow
func intArith(op string, a, b int64) any {
	switch op {
	case "+":
		if c, ok := addInt(a, b); ok {
			return c
		}
		return float64(a) + float64(b)
	case "-":
		if c, ok := subInt(a, b); ok {
			return c
		}
		return float64(a) - float64(b)
	case "*":
		if c, ok := mulInt(a, b); ok {
			return c
		}
		return float64(a) * float64(b)
	case "/":
		if b == 0 {
			return math.NaN()
		}
		return float64(a) / float64(b)
	case "%":
		if b == 0 {
			return math.NaN()
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m
	case "**":
		if b < 0 {
			return math.Pow(float64(a), float64(b))
		}
		return intPow(a, b)
	}
	return nil
}

func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return c, false
	}
	return c, c/b == a
}

// intPow squares its way to the result and falls back to float when it
// leaves the int64 range
func intPow(base, exp int64) any {
	switch base {
	case 0:
		if exp == 0 {
			return int64(1)
		}
		return int64(0)
	case 1:
		return int64(1)
	case -1:
		if exp%2 == 0 {
			return int64(1)
		}
		return int64(-1)
	}

	result, sq := int64(1), base
	for e := exp; e > 0; e >>= 1 {
		var ok bool
		if e&1 == 1 {
			if result, ok = mulInt(result, sq); !ok {
				return math.Pow(float64(base), float64(exp))
			}
		}
		if e > 1 {
			if sq, ok = mulInt(sq, sq); !ok {
				return math.Pow(float64(base), float64(exp))
			}
		}
	}
	return result
}

func floatArith(op string, a, b float64) any {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		if b == 0 {
			return math.NaN()
		}
		return a / b
	case "%":
		if b == 0 {
			return math.NaN()
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m
	case "**":
		return math.Pow(a, b)
	}
	return nil
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	}
	if table.IsInteger(v) {
		n, _ := table.ToInt(v)
		return decimal.NewFromInt(n), true
	}
	if f, ok := table.ToFloat(v); ok {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Decimal{}, false
}

func decimalArith(op string, l, r any) (any, error) {
	a, ok := toDecimal(l)
	if !ok {
		return nil, opError(op, "unsupported operand type %T", l)
	}
	b, ok := toDecimal(r)
	if !ok {
		return nil, opError(op, "unsupported operand type %T", r)
	}
	switch op {
	case "+":
		return a.Add(b), nil
	case "-":
		return a.Sub(b), nil
	case "*":
		return a.Mul(b), nil
	case "/":
		if b.IsZero() {
			return math.NaN(), nil
		}
		return a.Div(b), nil
	}
	return nil, opError(op, "unsupported for decimals")
}

func compare(op string, l, r any) (any, error) {
	if table.IsMissing(l) || table.IsMissing(r) {
		return false, nil
	}

	var c int
	switch {
	case isString(l) && isString(r):
		ls, rs := l.(string), r.(string)
		switch {
		case ls < rs:
			c = -1
		case ls > rs:
			c = 1
		}
	case isString(l) || isString(r):
		switch op {
		case "==":
			return false, nil
		case "!=":
			return true, nil
		}
		return nil, opError(op, "cannot compare %T and %T", l, r)
	default:
		ld, lok := l.(decimal.Decimal)
		rd, rok := r.(decimal.Decimal)
		if lok || rok {
			if !lok {
				ld, _ = toDecimal(l)
			}
			if !rok {
				rd, _ = toDecimal(r)
			}
			c = ld.Cmp(rd)
			break
		}
		a, aok := table.ToFloat(l)
		b, bok := table.ToFloat(r)
		if !aok || !bok {
			return nil, opError(op, "cannot compare %T and %T", l, r)
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	}

	switch op {
	case "==":
		return c == 0, nil
	case "!=":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	}
	return c >= 0, nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func unary(op string, v any) (any, error) {
	if op == "not" {
		return !table.ToBool(v), nil
	}
	if table.IsMissing(v) {
		return nil, nil
	}
	if d, ok := v.(decimal.Decimal); ok {
		if op == "-" {
			return d.Neg(), nil
		}
		return d, nil
	}
	if table.IsInteger(v) {
		n, _ := table.ToInt(v)
		if op == "-" {
			if n == math.MinInt64 {
				return -float64(n), nil
			}
			return -n, nil
		}
		return n, nil
	}
	f, ok := table.ToFloat(v)
	if !ok {
		return nil, opError(op, "bad operand type for unary %s: %T", op, v)
	}
	if op == "-" {
		return -f, nil
	}
	return f, nil
}
