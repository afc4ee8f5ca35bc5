package config

import (
	"github.com/spf13/viper"
)

// Engine configures expression compilation and evaluation
type Engine struct {
	MaxDepth    int  `mapstructure:"max_depth" validate:"gte=0"`
	MaxLength   int  `mapstructure:"max_length" validate:"gte=0"`
	CacheSize   int  `mapstructure:"cache_size" validate:"gte=0"` // compiled expressions kept, 0 means unbounded
	Parallelism int  `mapstructure:"parallelism" validate:"gte=0"`
	Provenance  bool `mapstructure:"provenance"`
}

// DefaultEngine returns the default engine configuration
func DefaultEngine() *Engine {
	return &Engine{
		MaxDepth:    64,
		MaxLength:   64 * 1024,
		CacheSize:   1024,
		Parallelism: 4,
	}
}

func getEngineConfig(v *viper.Viper) *Engine {
	d := DefaultEngine()
	return &Engine{
		MaxDepth:    getIntOrDefault(v, "engine.max_depth", d.MaxDepth),
		MaxLength:   getIntOrDefault(v, "engine.max_length", d.MaxLength),
		CacheSize:   getIntOrDefault(v, "engine.cache_size", d.CacheSize),
		Parallelism: getIntOrDefault(v, "engine.parallelism", d.Parallelism),
		Provenance:  getBoolOrDefault(v, "engine.provenance", false),
	}
}
