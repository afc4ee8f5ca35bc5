//go:build wireinject

package commands

import (
	"context"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/engine"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/lookup/factory"
	"github.com/google/wire"
)

// initApp wires the logger, error reporting, tracing, resolvers and the
// engine from a loaded configuration. The cleanup releases them in
// reverse order.
func initApp(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		logger.ProviderSet,
		provideObserves,
		factory.ProviderSet,
		engine.ProviderSet,
		newApp,
	))
}
