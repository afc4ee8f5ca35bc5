package factory

import (
	"context"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/lookup"
	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the factory package
var ProviderSet = wire.NewSet(ProvideResolvers)

// ProvideResolvers builds every resolver of the configuration. The cleanup
// releases their connections and watchers.
func ProvideResolvers(ctx context.Context, cfg *config.Config) (lookup.Resolvers, func(), error) {
	resolvers, closer, err := BuildAll(ctx, cfg.Resolvers)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := closer(); err != nil {
			logger.Errorf(ctx, "failed to close resolvers: %v", err)
		}
	}
	return resolvers, cleanup, nil
}
