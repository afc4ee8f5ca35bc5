package engine

import (
	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/expression"
	"github.com/elphick/df-eval/registry"
)

// Options configures an Engine
type Options struct {
	MaxDepth    int  // compiler nesting limit, 0 disables
	MaxLength   int  // compiler source length limit, 0 disables
	CacheSize   int  // compiled expressions kept, 0 means unbounded
	Parallelism int  // concurrent expressions in EvaluateMany, values below 1 mean 1
	Provenance  bool // record provenance on ApplySchema results

	// Registry seeds the engine. Nil means a fresh registry holding the
	// built-in functions; a given registry is copied, not shared.
	Registry *registry.Registry
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return OptionsFromConfig(config.DefaultEngine())
}

// OptionsFromConfig converts the engine section of the configuration
func OptionsFromConfig(cfg *config.Engine) *Options {
	if cfg == nil {
		cfg = config.DefaultEngine()
	}
	return &Options{
		MaxDepth:    cfg.MaxDepth,
		MaxLength:   cfg.MaxLength,
		CacheSize:   cfg.CacheSize,
		Parallelism: cfg.Parallelism,
		Provenance:  cfg.Provenance,
	}
}

func (o *Options) compilerConfig() *expression.Config {
	return &expression.Config{MaxDepth: o.MaxDepth, MaxLength: o.MaxLength}
}

func (o *Options) parallelism() int {
	if o.Parallelism < 1 {
		return 1
	}
	return o.Parallelism
}
