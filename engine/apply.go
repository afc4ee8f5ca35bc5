package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/evaluator"
	"github.com/elphick/df-eval/expression"
	"github.com/elphick/df-eval/graph"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/observes"
	"github.com/elphick/df-eval/schema"
	"github.com/elphick/df-eval/table"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Plan is a checked schema ready to run against one table
type Plan struct {
	// Order lists the schema columns so that every column follows the
	// columns it reads
	Order []string
	// Levels groups Order into waves of mutually independent columns
	Levels [][]string

	graph       *graph.Graph
	specs       map[string]schema.ColumnSpec
	expressions map[string]*expression.Expression
	dtypes      map[string]string
}

// Dependencies returns the schema columns name reads directly
func (p *Plan) Dependencies(name string) []string { return p.graph.Dependencies(name) }

// DType returns the dtype name's result is cast to, empty for none
func (p *Plan) DType(name string) string { return p.dtypes[name] }

// Plan compiles and checks every expression of s, resolves names against
// t, the schema and the registered constants, and orders the columns.
// dtypes overrides the dtype of individual columns. Nothing is evaluated.
func (e *Engine) Plan(t table.Reader, s *schema.Schema, dtypes map[string]string) (*Plan, error) {
	specs := s.Specs()
	p := &Plan{
		specs:       make(map[string]schema.ColumnSpec, len(specs)),
		expressions: make(map[string]*expression.Expression, len(specs)),
		dtypes:      make(map[string]string, len(specs)),
	}

	nodes := make([]graph.Node, 0, len(specs))
	for _, spec := range specs {
		expr, err := e.Compile(spec.Expression)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", spec.Name, err)
		}
		if err := evaluator.Check(expr, e.registry); err != nil {
			return nil, fmt.Errorf("column %q: %w", spec.Name, err)
		}

		var deps []string
		for _, name := range expr.Identifiers() {
			if _, ok := t.Column(name); ok {
				continue
			}
			if s.Has(name) {
				deps = append(deps, name)
				continue
			}
			if _, ok := e.registry.Constant(name); !ok {
				return nil, &ecode.NameResolutionError{Name: name, Expression: expr.Source()}
			}
		}

		p.specs[spec.Name] = spec
		p.expressions[spec.Name] = expr
		if spec.DType != "" {
			p.dtypes[spec.Name] = spec.DType
		}
		nodes = append(nodes, graph.Node{Name: spec.Name, Dependencies: deps})
	}

	for name, dtype := range dtypes {
		if !s.Has(name) {
			return nil, &ecode.ConfigurationError{Field: "dtypes", Message: fmt.Sprintf("column %q is not in the schema", name)}
		}
		if _, ok := table.NormalizeDType(dtype); !ok {
			return nil, &ecode.TypeCastError{Column: name, DType: dtype, Row: -1, Reason: "unsupported dtype"}
		}
		p.dtypes[name] = dtype
	}

	g, err := graph.New(nodes)
	if err != nil {
		return nil, err
	}
	if p.Levels, err = g.Levels(); err != nil {
		return nil, err
	}
	if p.Order, err = g.Order(); err != nil {
		return nil, err
	}
	p.graph = g
	return p, nil
}

// Order returns the evaluation order of s over t
func (e *Engine) Order(t table.Reader, s *schema.Schema) ([]string, error) {
	p, err := e.Plan(t, s, nil)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.Order), nil
}

// ApplySchema derives every column of s and returns them on a copy of t.
// t itself is never modified.
func (e *Engine) ApplySchema(ctx context.Context, t *table.Table, s *schema.Schema) (*table.Table, error) {
	return e.ApplySchemaWithTypes(ctx, t, s, nil)
}

// ApplySchemaWithTypes is ApplySchema with per-column dtype overrides.
// Compile errors, unknown names, functions and resolvers and cycles fail
// the call before any column is evaluated.
func (e *Engine) ApplySchemaWithTypes(ctx context.Context, t *table.Table, s *schema.Schema, dtypes map[string]string) (_ *table.Table, err error) {
	ctx, span := observes.StartSpan(ctx, "engine.apply_schema", attribute.Int("columns", s.Len()))
	defer func() { observes.EndSpan(span, err) }()

	p, err := e.Plan(t, s, dtypes)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "schema order: %v", p.Order)
	return e.Run(ctx, t, p)
}

// inputFirst reads the input table before the derived columns, so a
// schema column named like an input column never hides it
type inputFirst struct {
	input   *table.Table
	derived *table.Table
}

func (v inputFirst) Column(name string) (table.Series, bool) {
	if s, ok := v.input.Column(name); ok {
		return s, true
	}
	return v.derived.Column(name)
}

func (v inputFirst) NumRows() int { return v.input.NumRows() }

// Run evaluates a plan over a copy of t. Each column sees the columns of
// t and every column computed before it. A derived column named like a
// column of t replaces it in the result once every column is evaluated.
func (e *Engine) Run(ctx context.Context, t *table.Table, p *Plan) (*table.Table, error) {
	out := t.Copy()
	view := inputFirst{input: t, derived: out}
	provenance := e.provenance.Load()
	runID := ""
	if provenance {
		runID = uuid.NewString()
	}

	var shadowing []string
	replaced := make(map[string]table.Series)
	for _, name := range p.Order {
		series, err := e.runColumn(ctx, view, p, name)
		if err != nil {
			return nil, err
		}
		if t.Has(name) {
			shadowing = append(shadowing, name)
			replaced[name] = series
		} else if err := out.SetColumn(name, series); err != nil {
			return nil, err
		}
		if provenance {
			spec := p.specs[name]
			out.SetProvenance(name, table.Provenance{
				Expression:   spec.Expression,
				Dependencies: p.expressions[name].Dependencies(),
				DType:        p.dtypes[name],
				Metadata:     spec.Metadata,
				RunID:        runID,
			})
		}
	}
	for _, name := range shadowing {
		if err := out.SetColumn(name, replaced[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) runColumn(ctx context.Context, view table.Reader, p *Plan, name string) (_ table.Series, err error) {
	ctx, span := observes.StartSpan(ctx, "engine.column", attribute.String("column", name))
	defer func() { observes.EndSpan(span, err) }()

	expr := p.expressions[name]
	logger.Debugf(ctx, "evaluating column %q = %s", name, expr.Source())

	series, err := evaluator.Evaluate(ctx, expr, view, e.registry)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	if dtype := p.dtypes[name]; dtype != "" {
		if series, err = table.Cast(name, series, dtype); err != nil {
			return nil, err
		}
	}
	return series, nil
}
