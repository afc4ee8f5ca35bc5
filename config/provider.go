package config

import (
	logcfg "github.com/elphick/df-eval/logging/logger/config"
	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the config package. It
// extracts the sub-configurations other packages are built from.
var ProviderSet = wire.NewSet(ProvideLoggerConfig)

// ProvideLoggerConfig provides the logger configuration
func ProvideLoggerConfig(cfg *Config) *logcfg.Config {
	if cfg == nil {
		return nil
	}
	return cfg.Logger
}
