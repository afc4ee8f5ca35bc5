package lookup

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/table"
)

type countingResolver struct {
	inner Resolver
	calls int
	batch [][]any
}

func (c *countingResolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	c.calls++
	c.batch = append(c.batch, append([]any(nil), keys...))
	return c.inner.Resolve(ctx, keys)
}

func products() *MapResolver {
	return NewMapResolver(map[any]any{"apple": 1.5, "pear": 2.0})
}

func TestApplyNullPolicy(t *testing.T) {
	keys := table.Series{"apple", "kiwi", "pear", "kiwi"}
	got, err := Apply(context.Background(), "products", products(), keys, Options{Policy: PolicyNull})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := table.Series{1.5, nil, 2.0, nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolverDefaultOnlyUnderDefaultPolicy(t *testing.T) {
	keys := table.Series{"kiwi", "apple"}
	got, err := Apply(context.Background(), "products", products().WithDefault(0.0), keys, Options{Policy: PolicyNull})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, table.Series{nil, 1.5}) {
		t.Errorf("null policy: got %v", got)
	}

	_, err = Apply(context.Background(), "products", products().WithDefault(0.0), keys, Options{Policy: PolicyRaise})
	if !errors.Is(err, ecode.ErrLookup) {
		t.Errorf("raise policy: err = %v, want LookupError", err)
	}
}

func TestApplyRaisePolicy(t *testing.T) {
	keys := table.Series{"apple", "kiwi", "plum", "kiwi", "pear"}
	_, err := Apply(context.Background(), "products", products(), keys, Options{Policy: PolicyRaise})

	var lerr *ecode.LookupError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want LookupError", err)
	}
	if !reflect.DeepEqual(lerr.Keys, []any{"kiwi", "plum"}) {
		t.Errorf("unresolved keys = %v, want [kiwi plum]", lerr.Keys)
	}
	if lerr.Resolver != "products" {
		t.Errorf("Resolver = %q", lerr.Resolver)
	}
	if !errors.Is(err, ecode.ErrLookup) {
		t.Error("errors.Is(err, ErrLookup) = false")
	}
}

func TestApplyKeyPolicy(t *testing.T) {
	got, err := Apply(context.Background(), "products", products(), table.Series{"kiwi", "apple"}, Options{Policy: PolicyKey})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, table.Series{"kiwi", 1.5}) {
		t.Errorf("got %v", got)
	}
}

func TestApplyDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	keys := table.Series{"kiwi", "apple"}

	if _, err := Apply(ctx, "products", products(), keys, Options{Policy: PolicyDefault}); !errors.Is(err, ecode.ErrConfiguration) {
		t.Fatalf("err = %v, want ConfigurationError without a default", err)
	}

	got, err := Apply(ctx, "products", products().WithDefault(0.0), keys, Options{Policy: PolicyDefault})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, table.Series{0.0, 1.5}) {
		t.Errorf("resolver default: got %v", got)
	}

	got, err = Apply(ctx, "products", products(), keys, Options{Policy: PolicyDefault, Default: table.Series{-1, -2}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, table.Series{-1, 1.5}) {
		t.Errorf("per-row default: got %v", got)
	}

	got, err = Apply(ctx, "products", WithDefault(products(), "n/a"), keys, Options{Policy: PolicyDefault})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, table.Series{"n/a", 1.5}) {
		t.Errorf("wrapped default: got %v", got)
	}
}

func TestApplyBatchesDistinctKeys(t *testing.T) {
	r := &countingResolver{inner: NewMapResolver(map[any]any{1: "one", 2: "two"})}
	keys := table.Series{int64(1), 2.0, nil, math.NaN(), 1, int64(2)}

	got, err := Apply(context.Background(), "nums", r, keys, Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if r.calls != 1 {
		t.Fatalf("resolver called %d times, want 1", r.calls)
	}
	if !reflect.DeepEqual(r.batch[0], []any{int64(1), int64(2)}) {
		t.Errorf("batch = %v, want distinct normalized keys", r.batch[0])
	}
	want := table.Series{"one", "two", nil, nil, "one", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestApplyAllMissingSkipsResolver(t *testing.T) {
	r := &countingResolver{inner: products()}
	got, err := Apply(context.Background(), "products", r, table.Series{nil, nil}, Options{Policy: PolicyRaise})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if r.calls != 0 {
		t.Errorf("resolver called %d times, want 0", r.calls)
	}
	if !reflect.DeepEqual(got, table.Series{nil, nil}) {
		t.Errorf("got %v", got)
	}
}

func TestApplyBackendErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := ResolverFunc(func(context.Context, []any) ([]any, error) { return nil, boom })
	_, err := Apply(context.Background(), "db", failing, table.Series{"a"}, Options{})
	var lerr *ecode.LookupError
	if !errors.As(err, &lerr) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want LookupError wrapping boom", err)
	}

	short := ResolverFunc(func(context.Context, []any) ([]any, error) { return []any{}, nil })
	if _, err := Apply(context.Background(), "db", short, table.Series{"a"}, Options{}); !errors.Is(err, ecode.ErrLookup) {
		t.Fatalf("err = %v, want LookupError for short result", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := map[string]Policy{
		"":        PolicyNull,
		"null":    PolicyNull,
		"None":    PolicyNull,
		"default": PolicyDefault,
		"raise":   PolicyRaise,
		"key":     PolicyKey,
		"keep":    PolicyKey,
	}
	for in, want := range tests {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("ignore"); !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("ParsePolicy(ignore) err = %v", err)
	}
}

func TestNormalizeKey(t *testing.T) {
	if KeyID(3) != KeyID(3.0) || KeyID(int32(3)) != KeyID(int64(3)) {
		t.Error("integral numbers should share a key id")
	}
	if KeyID(3.5) == KeyID(3) {
		t.Error("3.5 and 3 must differ")
	}
	if KeyID("3") == KeyID(3) {
		t.Error("string and number keys must differ")
	}
}

func TestMapResolver(t *testing.T) {
	r := NewMapResolver(map[any]any{"a": 1})
	r.Set("b", 2)
	if r.Len() != 2 {
		t.Errorf("Len = %d", r.Len())
	}
	if _, ok := r.Default(); ok {
		t.Error("unexpected default")
	}
	got, _ := r.Resolve(context.Background(), []any{"b", "z", "a"})
	if !reflect.DeepEqual(got, []any{2, nil, 1}) {
		t.Errorf("Resolve = %v", got)
	}
}

func TestUnwrap(t *testing.T) {
	cached, err := NewCachedResolver(products(), CacheOptions{})
	if err != nil {
		t.Fatal(err)
	}
	r := WithDefault(WithTimeout(cached, 0), 1)
	if c, ok := Unwrap[*CachedResolver](r); !ok || c != cached {
		t.Error("Unwrap did not find the cached resolver")
	}
	if _, ok := Unwrap[*FileResolver](r); ok {
		t.Error("Unwrap found a file resolver that is not there")
	}
}
