package lookup

import (
	"context"
	"sync"
)

// MapResolver resolves keys from an in-memory mapping. Absent keys
// resolve to missing; the value set by WithDefault is only substituted
// under the "default" policy, never under null, raise or key.
type MapResolver struct {
	mu         sync.RWMutex
	mapping    map[string]any
	def        any
	hasDefault bool
}

// NewMapResolver creates a resolver over mapping. Keys are normalized so
// integer and integral float keys match each other.
func NewMapResolver(mapping map[any]any) *MapResolver {
	r := &MapResolver{mapping: make(map[string]any, len(mapping))}
	for k, v := range mapping {
		r.mapping[KeyID(k)] = v
	}
	return r
}

// WithDefault sets the value used by the "default" policy. Other
// policies ignore it.
func (r *MapResolver) WithDefault(v any) *MapResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = v
	r.hasDefault = true
	return r
}

// Default returns the configured default
func (r *MapResolver) Default() (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def, r.hasDefault
}

// Set adds or replaces one mapping entry
func (r *MapResolver) Set(key, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping[KeyID(key)] = value
}

// Len returns the number of entries
func (r *MapResolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mapping)
}

// Resolve looks up each key; absent keys resolve to nil
func (r *MapResolver) Resolve(_ context.Context, keys []any) ([]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = r.mapping[KeyID(k)]
	}
	return out, nil
}

// replace swaps the whole mapping
func (r *MapResolver) replace(mapping map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping = mapping
}
