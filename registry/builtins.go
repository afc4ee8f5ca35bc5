package registry

import (
	"context"
	"fmt"
	"math"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/table"
	"github.com/shopspring/decimal"
)

// expLimit keeps exp finite in float64
const expLimit = 709.0

// Builtins returns fresh descriptors for the built-in functions
func Builtins() []*Function {
	return []*Function{
		{Name: "abs", Params: []Param{{Name: "x"}}, Handler: Elementwise(absValue)},
		{Name: "log", Params: []Param{{Name: "x"}}, Handler: floatFunc("log", func(x float64) float64 {
			if x <= 0 {
				return math.NaN()
			}
			return math.Log(x)
		})},
		{Name: "exp", Params: []Param{{Name: "x"}}, Handler: floatFunc("exp", func(x float64) float64 {
			return math.Exp(math.Max(-expLimit, math.Min(expLimit, x)))
		})},
		{Name: "sqrt", Params: []Param{{Name: "x"}}, Handler: floatFunc("sqrt", func(x float64) float64 {
			if x < 0 {
				return math.NaN()
			}
			return math.Sqrt(x)
		})},
		{
			Name:    "clip",
			Params:  []Param{{Name: "x"}, {Name: "lo", Optional: true}, {Name: "hi", Optional: true}},
			Handler: Elementwise(clipValue),
		},
		{
			Name:   "where",
			Params: []Param{{Name: "cond"}, {Name: "x"}, {Name: "y"}},
			Handler: Elementwise(func(row []any) (any, error) {
				if table.ToBool(row[0]) {
					return row[1], nil
				}
				return row[2], nil
			}),
		},
		{
			Name:   "isna",
			Params: []Param{{Name: "x"}},
			Handler: Elementwise(func(row []any) (any, error) {
				return table.IsMissing(row[0]), nil
			}),
		},
		{
			Name:   "fillna",
			Params: []Param{{Name: "x"}, {Name: "value"}},
			Handler: Elementwise(func(row []any) (any, error) {
				if table.IsMissing(row[0]) {
					return row[1], nil
				}
				return row[0], nil
			}),
		},
		{
			Name:    "safe_divide",
			Params:  []Param{{Name: "a"}, {Name: "b"}},
			Handler: Elementwise(safeDivide),
		},
		{
			Name:     "coalesce",
			Params:   []Param{{Name: "args"}},
			Variadic: true,
			Handler: func(_ context.Context, rows int, args []table.Series) (table.Series, error) {
				out := make(table.Series, rows)
				for i := range out {
					for _, s := range args {
						if !table.IsMissing(s[i]) {
							out[i] = s[i]
							break
						}
					}
				}
				return out, nil
			},
		},
	}
}

func numeric(fn string, v any) (float64, error) {
	f, ok := table.ToFloat(v)
	if !ok {
		return 0, &ecode.FunctionCallError{Function: fn, Message: fmt.Sprintf("expects a numeric argument, got %T", v)}
	}
	return f, nil
}

// floatFunc applies fn to numeric rows; missing rows stay missing
func floatFunc(name string, fn func(float64) float64) Handler {
	return Elementwise(func(row []any) (any, error) {
		if table.IsMissing(row[0]) {
			return nil, nil
		}
		x, err := numeric(name, row[0])
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	})
}

func absValue(row []any) (any, error) {
	v := row[0]
	switch {
	case table.IsMissing(v):
		return nil, nil
	case table.IsInteger(v):
		n, _ := table.ToInt(v)
		if n < 0 {
			n = -n
		}
		return n, nil
	}
	if d, ok := v.(decimal.Decimal); ok {
		return d.Abs(), nil
	}
	x, err := numeric("abs", v)
	if err != nil {
		return nil, err
	}
	return math.Abs(x), nil
}

// clipValue bounds x by lo and hi; a missing bound is not applied
func clipValue(row []any) (any, error) {
	x, lo, hi := row[0], row[1], row[2]
	if table.IsMissing(x) {
		return nil, nil
	}
	xf, err := numeric("clip", x)
	if err != nil {
		return nil, err
	}
	if !table.IsMissing(lo) {
		lf, err := numeric("clip", lo)
		if err != nil {
			return nil, err
		}
		if xf < lf {
			return sameKind(x, lo, lf), nil
		}
	}
	if !table.IsMissing(hi) {
		hf, err := numeric("clip", hi)
		if err != nil {
			return nil, err
		}
		if xf > hf {
			return sameKind(x, hi, hf), nil
		}
	}
	return x, nil
}

// sameKind keeps integer results integer when both x and the bound are
func sameKind(x, bound any, f float64) any {
	if table.IsInteger(x) && table.IsInteger(bound) {
		n, _ := table.ToInt(bound)
		return n
	}
	return f
}

func safeDivide(row []any) (any, error) {
	a, b := row[0], row[1]
	if table.IsMissing(a) || table.IsMissing(b) {
		return nil, nil
	}
	af, err := numeric("safe_divide", a)
	if err != nil {
		return nil, err
	}
	bf, err := numeric("safe_divide", b)
	if err != nil {
		return nil, err
	}
	if bf == 0 {
		return math.NaN(), nil
	}
	return af / bf, nil
}
