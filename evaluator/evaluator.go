package evaluator

import (
	"context"
	"errors"
	"fmt"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/expression"
	"github.com/elphick/df-eval/lookup"
	"github.com/elphick/df-eval/registry"
	"github.com/elphick/df-eval/table"
)

// Check verifies that every function and resolver expr calls is
// registered and that lookup policies are valid, without touching data
func Check(expr *expression.Expression, reg *registry.Registry) error {
	var err error
	expression.Walk(expr.Root(), func(n expression.Node) bool {
		if err != nil {
			return false
		}
		switch v := n.(type) {
		case *expression.Call:
			if _, ok := reg.Function(v.Name); !ok {
				err = &ecode.FunctionCallError{Function: v.Name, Expression: expr.Source(), Message: "unknown function"}
			}
		case *expression.Lookup:
			if _, ok := reg.Resolver(v.Resolver); !ok {
				err = unknownResolver(expr, v.Resolver)
				return false
			}
			if _, perr := lookup.ParsePolicy(v.OnMissing); perr != nil {
				err = perr
			}
		}
		return err == nil
	})
	return err
}

func unknownResolver(expr *expression.Expression, name string) error {
	return &ecode.FunctionCallError{
		Function:   expression.LookupFunction,
		Expression: expr.Source(),
		Message:    fmt.Sprintf("unknown resolver %q", name),
	}
}

// Evaluate computes expr over every row of t. Identifiers resolve to a
// column of t first and to a registered constant second. Functions and
// resolvers are looked up in reg at evaluation time.
func Evaluate(ctx context.Context, expr *expression.Expression, t table.Reader, reg *registry.Registry) (table.Series, error) {
	e := &evaluation{ctx: ctx, expr: expr, table: t, reg: reg, rows: t.NumRows()}
	out, err := e.eval(expr.Root())
	if err != nil {
		return nil, e.annotate(err)
	}
	return out, nil
}

type evaluation struct {
	ctx   context.Context
	expr  *expression.Expression
	table table.Reader
	reg   *registry.Registry
	rows  int
}

// annotate attaches the expression text to errors raised without it
func (e *evaluation) annotate(err error) error {
	var ferr *ecode.FunctionCallError
	if errors.As(err, &ferr) && ferr.Expression == "" {
		ferr.Expression = e.expr.Source()
	}
	var nerr *ecode.NameResolutionError
	if errors.As(err, &nerr) && nerr.Expression == "" {
		nerr.Expression = e.expr.Source()
	}
	return err
}

func (e *evaluation) eval(n expression.Node) (table.Series, error) {
	switch v := n.(type) {
	case *expression.Literal:
		return table.Broadcast(v.Value, e.rows), nil

	case *expression.Identifier:
		return e.identifier(v.Name)

	case *expression.Unary:
		operand, err := e.eval(v.Operand)
		if err != nil {
			return nil, err
		}
		out := make(table.Series, e.rows)
		for i, x := range operand {
			if out[i], err = unary(v.Op, x); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *expression.Binary:
		left, err := e.eval(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(v.Right)
		if err != nil {
			return nil, err
		}
		out := make(table.Series, e.rows)
		for i := range out {
			if out[i], err = binary(v.Op, left[i], right[i]); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *expression.Call:
		return e.call(v)

	case *expression.Lookup:
		return e.lookup(v)
	}
	return nil, fmt.Errorf("unsupported expression node %T", n)
}

func (e *evaluation) identifier(name string) (table.Series, error) {
	if s, ok := e.table.Column(name); ok {
		if len(s) != e.rows {
			return nil, fmt.Errorf("column %q: %w: has %d rows, want %d", name, table.ErrRowCount, len(s), e.rows)
		}
		return s, nil
	}
	if v, ok := e.reg.Constant(name); ok {
		return table.Broadcast(v, e.rows), nil
	}
	return nil, &ecode.NameResolutionError{Name: name}
}

func (e *evaluation) call(c *expression.Call) (out table.Series, err error) {
	if err := e.ctx.Err(); err != nil {
		return nil, err
	}

	f, ok := e.reg.Function(c.Name)
	if !ok {
		return nil, &ecode.FunctionCallError{Function: c.Name, Message: "unknown function"}
	}

	args := make([]table.Series, len(c.Args))
	for i, a := range c.Args {
		if args[i], err = e.eval(a); err != nil {
			return nil, err
		}
	}
	var keywords map[string]table.Series
	if len(c.Keywords) > 0 {
		keywords = make(map[string]table.Series, len(c.Keywords))
		for _, kw := range c.Keywords {
			s, err := e.eval(kw.Value)
			if err != nil {
				return nil, err
			}
			keywords[kw.Name] = s
		}
	}

	bound, err := f.Bind(e.rows, args, keywords)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &ecode.FunctionCallError{Function: c.Name, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	out, err = f.Handler(e.ctx, e.rows, bound)
	if err != nil {
		var ferr *ecode.FunctionCallError
		if errors.As(err, &ferr) {
			return nil, err
		}
		return nil, &ecode.FunctionCallError{Function: c.Name, Message: "call failed", Err: err}
	}
	if len(out) != e.rows {
		return nil, &ecode.FunctionCallError{Function: c.Name, Message: fmt.Sprintf("returned %d values for %d rows", len(out), e.rows)}
	}
	return out, nil
}

func (e *evaluation) lookup(l *expression.Lookup) (table.Series, error) {
	if err := e.ctx.Err(); err != nil {
		return nil, err
	}

	r, ok := e.reg.Resolver(l.Resolver)
	if !ok {
		return nil, unknownResolver(e.expr, l.Resolver)
	}
	policy, err := lookup.ParsePolicy(l.OnMissing)
	if err != nil {
		return nil, err
	}

	keys, err := e.eval(l.Key)
	if err != nil {
		return nil, err
	}
	opts := lookup.Options{Policy: policy}
	if l.Default != nil {
		if opts.Default, err = e.eval(l.Default); err != nil {
			return nil, err
		}
	}
	return lookup.Apply(e.ctx, l.Resolver, r, keys, opts)
}
