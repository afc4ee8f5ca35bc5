package lookup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/table"
)

// Resolver resolves a batch of keys in one call. The result is parallel to
// keys; a nil element marks a key that could not be resolved.
type Resolver interface {
	Resolve(ctx context.Context, keys []any) ([]any, error)
}

// Resolvers is a set of resolvers keyed by registration name
type Resolvers map[string]Resolver

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, keys []any) ([]any, error)

// Resolve calls f(ctx, keys)
func (f ResolverFunc) Resolve(ctx context.Context, keys []any) ([]any, error) {
	return f(ctx, keys)
}

// Defaulter is implemented by resolvers that carry a configured default
// value for the "default" policy.
type Defaulter interface {
	Default() (any, bool)
}

// Policy selects what happens to keys a resolver cannot resolve
type Policy string

const (
	PolicyNull    Policy = "null"    // substitute a missing value
	PolicyDefault Policy = "default" // substitute the default value
	PolicyRaise   Policy = "raise"   // fail with the complete set of unresolved keys
	PolicyKey     Policy = "key"     // pass the key through unchanged
)

// ParsePolicy parses a policy name. An empty name means PolicyNull and
// "keep" is accepted as an alias of PolicyKey.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "null", "none":
		return PolicyNull, nil
	case "default":
		return PolicyDefault, nil
	case "raise":
		return PolicyRaise, nil
	case "key", "keep":
		return PolicyKey, nil
	}
	return "", &ecode.ConfigurationError{
		Field:   "on_missing",
		Message: fmt.Sprintf("%s: %q, expected one of null, default, raise, key", ecode.FieldIsInvalid("policy"), name),
	}
}

// Options configures one lookup
type Options struct {
	Policy  Policy
	Default table.Series // per-row default, nil falls back to the resolver's Defaulter
}

// NormalizeKey maps numerically equal keys to one representation so that a
// float 3.0 read from JSON matches an integer 3 read from CSV.
func NormalizeKey(key any) any {
	if table.IsInteger(key) {
		n, _ := table.ToInt(key)
		return n
	}
	switch v := key.(type) {
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
	case float32:
		return NormalizeKey(float64(v))
	}
	return key
}

// KeyID returns a comparable identity for a key after normalization
func KeyID(key any) string {
	nk := NormalizeKey(key)
	return fmt.Sprintf("%T:%v", nk, nk)
}

// Apply resolves a column of keys through r, issuing one Resolve call for the
// distinct non-missing keys, and applies the missing-key policy. Missing keys
// always produce missing values and are never sent to the resolver.
func Apply(ctx context.Context, name string, r Resolver, keys table.Series, opts Options) (table.Series, error) {
	if opts.Policy == "" {
		opts.Policy = PolicyNull
	}

	var fallback any
	if opts.Policy == PolicyDefault && opts.Default == nil {
		d, ok := r.(Defaulter)
		if !ok {
			return nil, &ecode.ConfigurationError{Field: "default", Message: fmt.Sprintf("on_missing=\"default\" but resolver %q has no default", name)}
		}
		v, ok := d.Default()
		if !ok {
			return nil, &ecode.ConfigurationError{Field: "default", Message: fmt.Sprintf("on_missing=\"default\" but resolver %q has no default", name)}
		}
		fallback = v
	}

	index := make(map[string]int)
	var distinct []any
	for _, k := range keys {
		if table.IsMissing(k) {
			continue
		}
		id := KeyID(k)
		if _, ok := index[id]; !ok {
			index[id] = len(distinct)
			distinct = append(distinct, NormalizeKey(k))
		}
	}

	var values []any
	if len(distinct) > 0 {
		var err error
		values, err = r.Resolve(ctx, distinct)
		if err != nil {
			var lookupErr *ecode.LookupError
			if errors.As(err, &lookupErr) || errors.Is(err, ecode.ErrConfiguration) {
				return nil, err
			}
			return nil, &ecode.LookupError{Resolver: name, Err: err}
		}
		if len(values) != len(distinct) {
			return nil, &ecode.LookupError{
				Resolver: name,
				Err:      fmt.Errorf("resolver returned %d values for %d keys", len(values), len(distinct)),
			}
		}
	}

	out := make(table.Series, len(keys))
	var unresolved []any
	reported := make(map[string]bool)
	for row, k := range keys {
		if table.IsMissing(k) {
			continue
		}
		id := KeyID(k)
		v := values[index[id]]
		if !table.IsMissing(v) {
			out[row] = v
			continue
		}

		switch opts.Policy {
		case PolicyNull:
			out[row] = nil
		case PolicyDefault:
			if opts.Default != nil {
				out[row] = opts.Default[row]
			} else {
				out[row] = fallback
			}
		case PolicyKey:
			out[row] = k
		case PolicyRaise:
			if !reported[id] {
				reported[id] = true
				unresolved = append(unresolved, k)
			}
		default:
			return nil, &ecode.ConfigurationError{Field: "on_missing", Message: ecode.FieldIsInvalid(string(opts.Policy))}
		}
	}

	if len(unresolved) > 0 {
		return nil, &ecode.LookupError{Resolver: name, Keys: unresolved}
	}
	return out, nil
}
