package engine

import (
	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/lookup"
	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the engine package
var ProviderSet = wire.NewSet(ProvideEngine)

// ProvideEngine creates an engine from the configuration with every
// given resolver registered
func ProvideEngine(cfg *config.Config, resolvers lookup.Resolvers) (*Engine, error) {
	e, err := New(OptionsFromConfig(cfg.Engine))
	if err != nil {
		return nil, err
	}
	for name, r := range resolvers {
		if err := e.RegisterResolver(name, r); err != nil {
			return nil, err
		}
	}
	return e, nil
}
