package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/lookup"
)

// LookupName is reserved for the built-in lookup call
const LookupName = "lookup"

// Registry maps names to functions, constants and resolvers. It is safe
// for concurrent use; evaluation reads it at call time, so registrations
// are visible to expressions compiled earlier.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Function
	constants map[string]any
	resolvers map[string]lookup.Resolver
}

// New returns an empty registry
func New() *Registry {
	return &Registry{
		functions: make(map[string]*Function),
		constants: make(map[string]any),
		resolvers: make(map[string]lookup.Resolver),
	}
}

// NewDefault returns a registry holding the built-in functions
func NewDefault() *Registry {
	r := New()
	for _, f := range Builtins() {
		r.functions[f.Name] = f
	}
	return r
}

func checkName(kind, name string) error {
	if name == "" {
		return &ecode.ConfigurationError{Field: kind, Message: ecode.FieldIsEmpty(kind + " name")}
	}
	if name == LookupName {
		return &ecode.ConfigurationError{Field: kind, Message: fmt.Sprintf("%q is reserved", LookupName)}
	}
	return nil
}

// RegisterFunction adds or replaces a function
func (r *Registry) RegisterFunction(f *Function) error {
	if f == nil || f.Handler == nil {
		return &ecode.ConfigurationError{Field: "function", Message: ecode.FieldIsRequired("function handler")}
	}
	if err := checkName("function", f.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[f.Name] = f
	return nil
}

// RegisterConstant adds or replaces a constant
func (r *Registry) RegisterConstant(name string, value any) error {
	if err := checkName("constant", name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constants[name] = value
	return nil
}

// RegisterResolver adds or replaces a resolver
func (r *Registry) RegisterResolver(name string, resolver lookup.Resolver) error {
	if name == "" {
		return &ecode.ConfigurationError{Field: "resolver", Message: ecode.FieldIsEmpty("resolver name")}
	}
	if resolver == nil {
		return &ecode.ConfigurationError{Field: "resolver", Message: ecode.FieldIsRequired("resolver")}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = resolver
	return nil
}

// Function returns the named function
func (r *Registry) Function(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.functions[name]
	return f, ok
}

// Constant returns the named constant
func (r *Registry) Constant(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.constants[name]
	return v, ok
}

// Resolver returns the named resolver
func (r *Registry) Resolver(name string) (lookup.Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolvers[name]
	return res, ok
}

// Functions returns the registered function names, sorted
func (r *Registry) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.functions)
}

// Constants returns the registered constant names, sorted
func (r *Registry) Constants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.constants)
}

// Resolvers returns the registered resolver names, sorted
func (r *Registry) Resolvers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.resolvers)
}

// Copy returns an independent registry with the same entries. Function
// descriptors, constant values and resolvers are shared; the maps are not.
func (r *Registry) Copy() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := New()
	for k, v := range r.functions {
		c.functions[k] = v
	}
	for k, v := range r.constants {
		c.constants[k] = v
	}
	for k, v := range r.resolvers {
		c.resolvers[k] = v
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
