package engine

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/lookup"
	"github.com/elphick/df-eval/registry"
	"github.com/elphick/df-eval/schema"
	"github.com/elphick/df-eval/table"
)

func newTable(t *testing.T, names []string, cols ...table.Series) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(names, cols...)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) table.Series {
	t.Helper()
	s, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q missing", name)
	}
	return s
}

func TestEvaluate(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a", "b"},
		table.Series{int64(1), int64(2), int64(3)},
		table.Series{int64(4), int64(5), int64(6)},
	)
	got, err := e.Evaluate(context.Background(), tbl, "a + b")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if want := (table.Series{int64(5), int64(7), int64(9)}); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEvaluateAs(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1), int64(2)})

	got, err := e.EvaluateAs(context.Background(), tbl, "a * 2", "float")
	if err != nil {
		t.Fatal(err)
	}
	if want := (table.Series{2.0, 4.0}); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := e.EvaluateAs(context.Background(), tbl, "a / 0", "int"); !errors.Is(err, ecode.ErrTypeCast) {
		t.Errorf("err = %v, want TypeCastError", err)
	}
	if _, err := e.EvaluateAs(context.Background(), tbl, "a", "complex"); !errors.Is(err, ecode.ErrTypeCast) {
		t.Errorf("err = %v, want TypeCastError", err)
	}
}

func TestEvaluateErrors(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1)})
	tests := []struct {
		src  string
		want error
	}{
		{"a +", ecode.ErrParse},
		{"a.b", ecode.ErrParse},
		{"missing + 1", ecode.ErrNameResolution},
		{"nope(a)", ecode.ErrFunctionCall},
		{"lookup(a, nowhere)", ecode.ErrFunctionCall},
	}
	for _, tt := range tests {
		if _, err := e.Evaluate(context.Background(), tbl, tt.src); !errors.Is(err, tt.want) {
			t.Errorf("Evaluate(%q) err = %v, want %v", tt.src, err, tt.want)
		}
	}
}

func TestApplySchemaChain(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1), int64(2), int64(3)})
	s := schema.MustNew(
		schema.ColumnSpec{Name: "b", Expression: "a*2"},
		schema.ColumnSpec{Name: "c", Expression: "b+10"},
		schema.ColumnSpec{Name: "d", Expression: "c*a"},
	)

	out, err := e.ApplySchema(context.Background(), tbl, s)
	if err != nil {
		t.Fatalf("ApplySchema: %v", err)
	}
	want := map[string]table.Series{
		"b": {int64(2), int64(4), int64(6)},
		"c": {int64(12), int64(14), int64(16)},
		"d": {int64(12), int64(28), int64(48)},
	}
	for name, w := range want {
		if got := column(t, out, name); !reflect.DeepEqual(got, w) {
			t.Errorf("%s = %v, want %v", name, got, w)
		}
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Names = %v", got)
	}
	if tbl.Has("b") {
		t.Error("input table was modified")
	}
}

func TestApplySchemaOrderIndependentOfDeclaration(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1), int64(2), int64(3)})
	s := schema.MustNew(
		schema.ColumnSpec{Name: "d", Expression: "c*a"},
		schema.ColumnSpec{Name: "c", Expression: "b+10"},
		schema.ColumnSpec{Name: "b", Expression: "a*2"},
	)

	order, err := e.Order(tbl, s)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"b", "c", "d"}; !reflect.DeepEqual(order, want) {
		t.Errorf("Order = %v, want %v", order, want)
	}

	out, err := e.ApplySchema(context.Background(), tbl, s)
	if err != nil {
		t.Fatal(err)
	}
	if got := column(t, out, "d"); !reflect.DeepEqual(got, table.Series{int64(12), int64(28), int64(48)}) {
		t.Errorf("d = %v", got)
	}
}

func TestApplySchemaDeterministic(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"x"}, table.Series{int64(1)})
	s := schema.MustNew(
		schema.ColumnSpec{Name: "p", Expression: "x + 1"},
		schema.ColumnSpec{Name: "q", Expression: "r + p"},
		schema.ColumnSpec{Name: "r", Expression: "x * 3"},
		schema.ColumnSpec{Name: "s", Expression: "x - 1"},
	)
	first, err := e.Order(tbl, s)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"p", "r", "q", "s"}; !reflect.DeepEqual(first, want) {
		t.Errorf("Order = %v, want %v", first, want)
	}
	for i := 0; i < 10; i++ {
		again, _ := e.Order(tbl, s)
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("order changed: %v vs %v", again, first)
		}
	}
}

func TestApplySchemaCycle(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1)})
	s := schema.MustNew(
		schema.ColumnSpec{Name: "ok", Expression: "a + 1"},
		schema.ColumnSpec{Name: "x", Expression: "y + 1"},
		schema.ColumnSpec{Name: "y", Expression: "x + 1"},
	)

	out, err := e.ApplySchema(context.Background(), tbl, s)
	var cerr *ecode.CycleDetectedError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CycleDetectedError", err)
	}
	if want := []string{"x", "y", "x"}; !reflect.DeepEqual(cerr.Path, want) {
		t.Errorf("Path = %v, want %v", cerr.Path, want)
	}
	if out != nil {
		t.Error("output returned despite cycle")
	}
	if tbl.Has("ok") {
		t.Error("derived column written to input")
	}
}

func TestApplySchemaFailsBeforeEvaluating(t *testing.T) {
	var calls atomic.Int64
	e := MustNew(nil)
	if err := e.RegisterFunction(registry.Scalar("count", []string{"x"}, func(row []any) (any, error) {
		calls.Add(1)
		return row[0], nil
	})); err != nil {
		t.Fatal(err)
	}
	tbl := newTable(t, []string{"a"}, table.Series{int64(1), int64(2)})

	tests := []struct {
		name string
		expr string
		want error
	}{
		{"parse", "a +* 2", ecode.ErrParse},
		{"function", "unknown_fn(a)", ecode.ErrFunctionCall},
		{"resolver", "lookup(a, nowhere)", ecode.ErrFunctionCall},
		{"name", "undefined_name * 2", ecode.ErrNameResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := schema.MustNew(
				schema.ColumnSpec{Name: "first", Expression: "count(a)"},
				schema.ColumnSpec{Name: "bad", Expression: tt.expr},
			)
			if _, err := e.ApplySchema(context.Background(), tbl, s); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if n := calls.Load(); n != 0 {
				t.Errorf("count called %d times before failure", n)
			}
		})
	}
}

func TestApplySchemaSelfReference(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"x"}, table.Series{int64(1), int64(2)})

	// a table column of the same name is read, not the derived column
	out, err := e.ApplySchema(context.Background(), tbl, schema.MustNew(
		schema.ColumnSpec{Name: "x", Expression: "x + 1"},
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := column(t, out, "x"); !reflect.DeepEqual(got, table.Series{int64(2), int64(3)}) {
		t.Errorf("x = %v", got)
	}
	if got := column(t, tbl, "x"); !reflect.DeepEqual(got, table.Series{int64(1), int64(2)}) {
		t.Errorf("input x changed to %v", got)
	}

	_, err = e.ApplySchema(context.Background(), tbl, schema.MustNew(
		schema.ColumnSpec{Name: "z", Expression: "z + 1"},
	))
	if !errors.Is(err, ecode.ErrCycleDetected) {
		t.Errorf("err = %v, want CycleDetectedError", err)
	}
}

func TestApplySchemaShadowedColumnOrderIndependent(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"x"}, table.Series{int64(1)})

	orders := [][]schema.ColumnSpec{
		{{Name: "x", Expression: "x + 1"}, {Name: "y", Expression: "x * 10"}},
		{{Name: "y", Expression: "x * 10"}, {Name: "x", Expression: "x + 1"}},
	}
	for i, specs := range orders {
		out, err := e.ApplySchema(context.Background(), tbl, schema.MustNew(specs...))
		if err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
		// y always reads the input x
		if got := column(t, out, "y"); !reflect.DeepEqual(got, table.Series{int64(10)}) {
			t.Errorf("order %d: y = %v", i, got)
		}
		if got := column(t, out, "x"); !reflect.DeepEqual(got, table.Series{int64(2)}) {
			t.Errorf("order %d: x = %v", i, got)
		}
		if got := out.Names(); !reflect.DeepEqual(got, []string{"x", "y"}) {
			t.Errorf("order %d: names = %v", i, got)
		}
	}
}

func TestApplySchemaTypes(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1), int64(2)})
	s := schema.MustNew(
		schema.ColumnSpec{Name: "f", Expression: "a * 2", DType: "float"},
		schema.ColumnSpec{Name: "s", Expression: "a + 1"},
	)

	out, err := e.ApplySchemaWithTypes(context.Background(), tbl, s, map[string]string{"s": "string"})
	if err != nil {
		t.Fatal(err)
	}
	if got := column(t, out, "f"); !reflect.DeepEqual(got, table.Series{2.0, 4.0}) {
		t.Errorf("f = %v", got)
	}
	if got := column(t, out, "s"); !reflect.DeepEqual(got, table.Series{"2", "3"}) {
		t.Errorf("s = %v", got)
	}

	bad := schema.MustNew(schema.ColumnSpec{Name: "n", Expression: "a / 0", DType: "int"})
	if _, err := e.ApplySchema(context.Background(), tbl, bad); !errors.Is(err, ecode.ErrTypeCast) {
		t.Errorf("err = %v, want TypeCastError", err)
	}
	if _, err := e.ApplySchemaWithTypes(context.Background(), tbl, s, map[string]string{"s": "blob"}); !errors.Is(err, ecode.ErrTypeCast) {
		t.Errorf("err = %v, want TypeCastError", err)
	}
	if _, err := e.ApplySchemaWithTypes(context.Background(), tbl, s, map[string]string{"zz": "int"}); !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("err = %v, want ConfigurationError", err)
	}
}

func TestProvenance(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1)})
	s := schema.MustNew(
		schema.ColumnSpec{Name: "b", Expression: "a * rate", Metadata: map[string]any{"unit": "usd"}},
		schema.ColumnSpec{Name: "c", Expression: "b + a", DType: "float"},
	)
	if err := e.RegisterConstant("rate", 2); err != nil {
		t.Fatal(err)
	}

	out, err := e.ApplySchema(context.Background(), tbl, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Provenances()) != 0 {
		t.Errorf("provenance recorded while disabled: %v", out.Provenances())
	}

	e.EnableProvenance(true)
	if !e.ProvenanceEnabled() {
		t.Fatal("ProvenanceEnabled = false")
	}
	out, err = e.ApplySchema(context.Background(), tbl, s)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := out.Provenance("b")
	if !ok {
		t.Fatal("no provenance for b")
	}
	if b.Expression != "a * rate" || !reflect.DeepEqual(b.Dependencies, []string{"a", "rate"}) || b.Metadata["unit"] != "usd" {
		t.Errorf("b provenance = %+v", b)
	}
	c, _ := out.Provenance("c")
	if c.DType != "float" || !reflect.DeepEqual(c.Dependencies, []string{"b", "a"}) {
		t.Errorf("c provenance = %+v", c)
	}
	if b.RunID == "" || b.RunID != c.RunID {
		t.Errorf("run ids = %q, %q", b.RunID, c.RunID)
	}
	if _, ok := out.Provenance("a"); ok {
		t.Error("input column has provenance")
	}
}

func TestCopyIsolatesRegistry(t *testing.T) {
	original := MustNew(nil)
	if err := original.RegisterConstant("k", 1); err != nil {
		t.Fatal(err)
	}
	clone := original.Copy()

	double := registry.Scalar("double", []string{"x"}, func(row []any) (any, error) {
		n, _ := table.ToInt(row[0])
		return n * 2, nil
	})
	if err := clone.RegisterFunction(double); err != nil {
		t.Fatal(err)
	}
	if err := clone.RegisterConstant("only_clone", 3); err != nil {
		t.Fatal(err)
	}
	if err := original.RegisterConstant("only_original", 4); err != nil {
		t.Fatal(err)
	}

	if _, ok := original.Registry().Function("double"); ok {
		t.Error("function registered on copy is visible on original")
	}
	if _, ok := original.Registry().Constant("only_clone"); ok {
		t.Error("constant registered on copy is visible on original")
	}
	if _, ok := clone.Registry().Constant("only_original"); ok {
		t.Error("constant registered on original is visible on copy")
	}
	if v, ok := clone.Registry().Constant("k"); !ok || v != 1 {
		t.Errorf("copied constant k = %v, %v", v, ok)
	}

	tbl := newTable(t, []string{"a"}, table.Series{int64(5)})
	if got, err := clone.Evaluate(context.Background(), tbl, "double(a)"); err != nil || !reflect.DeepEqual(got, table.Series{int64(10)}) {
		t.Errorf("clone double(a) = %v, %v", got, err)
	}
	if _, err := original.Evaluate(context.Background(), tbl, "double(a)"); !errors.Is(err, ecode.ErrFunctionCall) {
		t.Errorf("original double(a) err = %v", err)
	}
}

func TestReRegisteredFunctionIsUsed(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1)})
	register := func(v int64) {
		if err := e.RegisterFunction(registry.Scalar("f", []string{"x"}, func([]any) (any, error) { return v, nil })); err != nil {
			t.Fatal(err)
		}
	}

	register(1)
	if got, _ := e.Evaluate(context.Background(), tbl, "f(a)"); !reflect.DeepEqual(got, table.Series{int64(1)}) {
		t.Errorf("first f(a) = %v", got)
	}
	register(2)
	if got, _ := e.Evaluate(context.Background(), tbl, "f(a)"); !reflect.DeepEqual(got, table.Series{int64(2)}) {
		t.Errorf("re-registered f(a) = %v", got)
	}
}

func TestCompileCache(t *testing.T) {
	e := MustNew(&Options{CacheSize: 2, MaxDepth: 64, MaxLength: 1024})
	first, err := e.Compile("a + 1")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Compile("a + 1")
	if first != second {
		t.Error("compiled expression not reused")
	}
	if s := e.CacheStats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v", s)
	}
	if _, err := e.Compile("a +"); !errors.Is(err, ecode.ErrParse) {
		t.Errorf("err = %v", err)
	}
	if s := e.CacheStats(); s.Size != 1 {
		t.Errorf("parse failure cached, size %d", s.Size)
	}
}

func TestCompileLimits(t *testing.T) {
	e := MustNew(&Options{MaxLength: 5})
	if _, err := e.Compile("a + b + c"); !errors.Is(err, ecode.ErrParse) {
		t.Errorf("err = %v, want ParseError", err)
	}
}

func TestSafeDivideAndCoalesce(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a", "b", "c"},
		table.Series{int64(1), nil, nil},
		table.Series{nil, int64(2), nil},
		table.Series{nil, nil, int64(3)},
	)
	got, err := e.Evaluate(context.Background(), tbl, "coalesce(a, b, c)")
	if err != nil {
		t.Fatal(err)
	}
	if want := (table.Series{int64(1), int64(2), int64(3)}); !reflect.DeepEqual(got, want) {
		t.Errorf("coalesce = %v, want %v", got, want)
	}

	nums := newTable(t, []string{"x", "y"},
		table.Series{int64(6), int64(1)},
		table.Series{int64(3), int64(0)},
	)
	got, err = e.Evaluate(context.Background(), nums, "safe_divide(x, y)")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 2.0 || !table.IsMissing(got[1]) {
		t.Errorf("safe_divide = %v", got)
	}
}

func TestLookupPolicies(t *testing.T) {
	e := MustNew(nil)
	prices := lookup.NewMapResolver(map[any]any{"apple": 1.5})
	if err := e.RegisterResolver("prices", prices); err != nil {
		t.Fatal(err)
	}
	tbl := newTable(t, []string{"products"}, table.Series{"apple", "kiwi", "pear", "kiwi"})

	got, err := e.Evaluate(context.Background(), tbl, `lookup(products, prices, on_missing="null")`)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1.5 || !table.IsMissing(got[1]) || !table.IsMissing(got[2]) || !table.IsMissing(got[3]) {
		t.Errorf("null policy = %v", got)
	}

	_, err = e.Evaluate(context.Background(), tbl, `lookup(products, prices, on_missing="raise")`)
	var lerr *ecode.LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want LookupError", err)
	}
	keys := lerr.SortedKeys()
	sort.Strings(keys)
	if want := []string{"kiwi", "pear"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("unresolved keys = %v, want %v", keys, want)
	}
}

func TestLookupThroughCachedResolver(t *testing.T) {
	var calls atomic.Int64
	backend := lookup.ResolverFunc(func(_ context.Context, keys []any) ([]any, error) {
		calls.Add(1)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k.(string) + "!"
		}
		return out, nil
	})
	cached, err := lookup.NewCachedResolver(backend, lookup.CacheOptions{MaxEntries: 10})
	if err != nil {
		t.Fatal(err)
	}
	e := MustNew(nil)
	if err := e.RegisterResolver("shout", cached); err != nil {
		t.Fatal(err)
	}
	tbl := newTable(t, []string{"k"}, table.Series{"a", "b", "a"})

	s := schema.MustNew(
		schema.ColumnSpec{Name: "x", Expression: "lookup(k, shout)"},
		schema.ColumnSpec{Name: "y", Expression: "lookup(k, shout)"},
	)
	out, err := e.ApplySchema(context.Background(), tbl, s)
	if err != nil {
		t.Fatal(err)
	}
	if got := column(t, out, "y"); !reflect.DeepEqual(got, table.Series{"a!", "b!", "a!"}) {
		t.Errorf("y = %v", got)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
	if st := cached.Stats(); st.Misses != 2 || st.Hits != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEvaluateMany(t *testing.T) {
	e := MustNew(&Options{Parallelism: 3})
	tbl := newTable(t, []string{"a"}, table.Series{int64(1), int64(2)})

	got, err := e.EvaluateMany(context.Background(), tbl, map[string]string{
		"double": "a * 2",
		"square": "a ** 2",
		"neg":    "-a",
		"big":    "a > 1",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]table.Series{
		"double": {int64(2), int64(4)},
		"square": {int64(1), int64(4)},
		"neg":    {int64(-1), int64(-2)},
		"big":    {false, true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	_, err = e.EvaluateMany(context.Background(), tbl, map[string]string{"ok": "a", "bad": "nope(a)"})
	if !errors.Is(err, ecode.ErrFunctionCall) {
		t.Errorf("err = %v, want FunctionCallError", err)
	}
}

func TestEvaluateCanceled(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(-1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Evaluate(ctx, tbl, "abs(a)"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPlanLevels(t *testing.T) {
	e := MustNew(nil)
	tbl := newTable(t, []string{"a"}, table.Series{int64(1)})
	p, err := e.Plan(tbl, schema.MustNew(
		schema.ColumnSpec{Name: "c", Expression: "b + 1"},
		schema.ColumnSpec{Name: "b", Expression: "a + 1"},
		schema.ColumnSpec{Name: "d", Expression: "a - 1", DType: "float"},
	), nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := [][]string{{"b", "d"}, {"c"}}; !reflect.DeepEqual(p.Levels, want) {
		t.Errorf("Levels = %v, want %v", p.Levels, want)
	}
	if got := p.Dependencies("c"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Dependencies(c) = %v", got)
	}
	if p.DType("d") != "float" || p.DType("c") != "" {
		t.Errorf("dtypes = %q, %q", p.DType("d"), p.DType("c"))
	}
}

func TestProvideEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Provenance = true

	e, err := ProvideEngine(cfg, lookup.Resolvers{
		"colors": lookup.NewMapResolver(map[any]any{int64(1): "red"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !e.ProvenanceEnabled() {
		t.Error("provenance not enabled from config")
	}
	tbl := newTable(t, []string{"id"}, table.Series{int64(1), int64(2)})
	got, err := e.Evaluate(context.Background(), tbl, "lookup(id, colors)")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != "red" || !table.IsMissing(got[1]) {
		t.Errorf("got %v", got)
	}
}
