package lookup

import (
	"context"
	"time"
)

type defaulted struct {
	Resolver
	value any
}

func (d *defaulted) Default() (any, bool) { return d.value, true }

func (d *defaulted) Unwrap() Resolver { return d.Resolver }

// WithDefault attaches a default value used by the "default" policy
func WithDefault(r Resolver, value any) Resolver {
	return &defaulted{Resolver: r, value: value}
}

type timeout struct {
	Resolver
	d time.Duration
}

func (t *timeout) Resolve(ctx context.Context, keys []any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Resolver.Resolve(ctx, keys)
}

func (t *timeout) Default() (any, bool) {
	if d, ok := t.Resolver.(Defaulter); ok {
		return d.Default()
	}
	return nil, false
}

func (t *timeout) Unwrap() Resolver { return t.Resolver }

// WithTimeout bounds every Resolve call on r by d
func WithTimeout(r Resolver, d time.Duration) Resolver {
	if d <= 0 {
		return r
	}
	return &timeout{Resolver: r, d: d}
}

// Unwrap walks wrapper resolvers until it finds one of type T
func Unwrap[T Resolver](r Resolver) (T, bool) {
	for r != nil {
		if t, ok := r.(T); ok {
			return t, true
		}
		u, ok := r.(interface{ Unwrap() Resolver })
		if !ok {
			break
		}
		r = u.Unwrap()
	}
	var zero T
	return zero, false
}
