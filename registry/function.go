package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/table"
)

// Handler computes one output column. Every argument series has rows
// elements, scalars already broadcast.
type Handler func(ctx context.Context, rows int, args []table.Series) (table.Series, error)

// Param describes one function parameter
type Param struct {
	Name     string
	Optional bool
	Default  any // broadcast when an optional parameter is omitted
}

// Function is a vectorized function callable from expressions
type Function struct {
	Name     string
	Params   []Param
	Variadic bool // accepts any number of positional arguments, at least the required Params
	Handler  Handler
}

// Signature renders the function as it would be called, e.g. clip(x, lo=?, hi=?)
func (f *Function) Signature() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		switch {
		case f.Variadic && i == len(f.Params)-1:
			parts[i] = "*" + p.Name
		case p.Optional:
			parts[i] = p.Name + "=?"
		default:
			parts[i] = p.Name
		}
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(parts, ", "))
}

func (f *Function) callError(format string, args ...any) error {
	return &ecode.FunctionCallError{Function: f.Name, Message: fmt.Sprintf(format, args...)}
}

// Bind orders positional and keyword arguments by parameter and fills
// omitted optional parameters with their broadcast default
func (f *Function) Bind(rows int, args []table.Series, keywords map[string]table.Series) ([]table.Series, error) {
	required := 0
	for _, p := range f.Params {
		if !p.Optional {
			required++
		}
	}

	if f.Variadic {
		if len(keywords) > 0 {
			return nil, f.callError("does not accept keyword arguments")
		}
		if len(args) < required {
			return nil, f.callError("takes at least %d argument(s), got %d", required, len(args))
		}
		return args, nil
	}

	if len(args) > len(f.Params) {
		return nil, f.callError("takes at most %d argument(s), got %d", len(f.Params), len(args))
	}

	bound := make([]table.Series, len(f.Params))
	copy(bound, args)
	for name, s := range keywords {
		i := f.paramIndex(name)
		if i < 0 {
			return nil, f.callError("unexpected keyword argument %q", name)
		}
		if i < len(args) {
			return nil, f.callError("got multiple values for argument %q", name)
		}
		bound[i] = s
	}

	for i, p := range f.Params {
		if bound[i] != nil {
			continue
		}
		if !p.Optional {
			return nil, f.callError("missing required argument %q", p.Name)
		}
		bound[i] = table.Broadcast(p.Default, rows)
	}
	return bound, nil
}

func (f *Function) paramIndex(name string) int {
	for i, p := range f.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Elementwise lifts a per-row function into a Handler
func Elementwise(fn func(row []any) (any, error)) Handler {
	return func(_ context.Context, rows int, args []table.Series) (table.Series, error) {
		out := make(table.Series, rows)
		row := make([]any, len(args))
		for i := 0; i < rows; i++ {
			for j, s := range args {
				row[j] = s[i]
			}
			v, err := fn(row)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}

// Scalar builds an elementwise function over required positional parameters
func Scalar(name string, params []string, fn func(row []any) (any, error)) *Function {
	ps := make([]Param, len(params))
	for i, p := range params {
		ps[i] = Param{Name: p}
	}
	return &Function{Name: name, Params: ps, Handler: Elementwise(fn)}
}
