package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/elphick/df-eval/cache"
	"github.com/elphick/df-eval/evaluator"
	"github.com/elphick/df-eval/expression"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/lookup"
	"github.com/elphick/df-eval/observes"
	"github.com/elphick/df-eval/registry"
	"github.com/elphick/df-eval/table"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Engine evaluates expressions and schemas over tables. It owns its
// registry of functions, constants and resolvers and a cache of compiled
// expressions keyed by source text.
//
// Usage:
//
//	e, err := engine.New(nil)
//	if err != nil {
//	    return err
//	}
//
//	// Register a constant and a resolver
//	_ = e.RegisterConstant("rate", 0.2)
//	_ = e.RegisterResolver("colors", lookup.NewMapResolver(map[any]any{1: "red"}))
//
//	// Evaluate one expression
//	s, err := e.Evaluate(ctx, t, "price * qty * (1 + rate)")
//
//	// Derive several columns that depend on each other
//	out, err := e.ApplySchema(ctx, t, schema.MustNew(
//	    schema.ColumnSpec{Name: "total", Expression: "net * (1 + rate)"},
//	    schema.ColumnSpec{Name: "net", Expression: "price * qty"},
//	))
type Engine struct {
	opts       Options
	registry   *registry.Registry
	compiled   *cache.Cache[string, *expression.Expression]
	provenance atomic.Bool
}

// New creates an engine. Nil options mean DefaultOptions.
func New(opts *Options) (*Engine, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts

	reg := registry.NewDefault()
	if o.Registry != nil {
		reg = o.Registry.Copy()
	}
	o.Registry = nil

	compiled, err := cache.New(cache.Config[string, *expression.Expression]{MaxEntries: o.CacheSize})
	if err != nil {
		return nil, err
	}

	e := &Engine{opts: o, registry: reg, compiled: compiled}
	e.provenance.Store(o.Provenance)
	return e, nil
}

// MustNew is like New but panics on error
func MustNew(opts *Options) *Engine {
	e, err := New(opts)
	if err != nil {
		panic(err)
	}
	return e
}

// Registry returns the engine's registry
func (e *Engine) Registry() *registry.Registry { return e.registry }

// RegisterFunction adds or replaces a function
func (e *Engine) RegisterFunction(f *registry.Function) error {
	return e.registry.RegisterFunction(f)
}

// RegisterConstant adds or replaces a named constant
func (e *Engine) RegisterConstant(name string, value any) error {
	return e.registry.RegisterConstant(name, value)
}

// RegisterResolver adds or replaces a named resolver
func (e *Engine) RegisterResolver(name string, r lookup.Resolver) error {
	return e.registry.RegisterResolver(name, r)
}

// EnableProvenance turns provenance recording on or off
func (e *Engine) EnableProvenance(enabled bool) { e.provenance.Store(enabled) }

// ProvenanceEnabled reports whether ApplySchema records provenance
func (e *Engine) ProvenanceEnabled() bool { return e.provenance.Load() }

// Copy returns an engine with the same options and an independent copy of
// the registry. Registrations on either engine are invisible to the other.
func (e *Engine) Copy() *Engine {
	compiled, _ := cache.New(cache.Config[string, *expression.Expression]{MaxEntries: e.opts.CacheSize})
	c := &Engine{opts: e.opts, registry: e.registry.Copy(), compiled: compiled}
	c.provenance.Store(e.provenance.Load())
	return c
}

// Compile returns the compiled form of source, from the cache when
// possible. Compile errors are not cached.
func (e *Engine) Compile(source string) (*expression.Expression, error) {
	if expr, ok := e.compiled.Get(source); ok {
		return expr, nil
	}
	expr, err := expression.CompileWithConfig(source, e.opts.compilerConfig())
	if err != nil {
		return nil, err
	}
	e.compiled.Set(source, expr)
	return expr, nil
}

// CacheStats reports compiled expression cache counters
func (e *Engine) CacheStats() cache.Stats { return e.compiled.Stats() }

// Evaluate computes one expression over t
func (e *Engine) Evaluate(ctx context.Context, t table.Reader, source string) (table.Series, error) {
	return e.EvaluateAs(ctx, t, source, "")
}

// EvaluateAs computes one expression over t and casts the result to
// dtype. An empty dtype leaves the result as computed.
func (e *Engine) EvaluateAs(ctx context.Context, t table.Reader, source, dtype string) (_ table.Series, err error) {
	ctx, span := observes.StartSpan(ctx, "engine.evaluate", attribute.String("expression", source))
	defer func() { observes.EndSpan(span, err) }()

	expr, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	if err := evaluator.Check(expr, e.registry); err != nil {
		return nil, err
	}

	logger.Debugf(ctx, "evaluating %q over %d row(s)", source, t.NumRows())
	out, err := evaluator.Evaluate(ctx, expr, t, e.registry)
	if err != nil {
		return nil, err
	}
	if dtype == "" {
		return out, nil
	}
	return table.Cast(source, out, dtype)
}

// EvaluateMany computes independent expressions over t and returns the
// results keyed like exprs. Every expression is compiled and checked
// before any is evaluated; evaluation runs on up to Parallelism goroutines.
func (e *Engine) EvaluateMany(ctx context.Context, t table.Reader, exprs map[string]string) (_ map[string]table.Series, err error) {
	ctx, span := observes.StartSpan(ctx, "engine.evaluate_many", attribute.Int("expressions", len(exprs)))
	defer func() { observes.EndSpan(span, err) }()

	compiled := make(map[string]*expression.Expression, len(exprs))
	for _, name := range slices.Sorted(maps.Keys(exprs)) {
		expr, err := e.Compile(exprs[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := evaluator.Check(expr, e.registry); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		compiled[name] = expr
	}

	results := make(map[string]table.Series, len(exprs))
	out := make(chan struct {
		name   string
		series table.Series
	}, len(compiled))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.parallelism())
	for name, expr := range compiled {
		g.Go(func() error {
			s, err := evaluator.Evaluate(gctx, expr, t, e.registry)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out <- struct {
				name   string
				series table.Series
			}{name, s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(out)
	for r := range out {
		results[r.name] = r.series
	}
	logger.Debugf(ctx, "evaluated %d expression(s)", len(results))
	return results, nil
}
