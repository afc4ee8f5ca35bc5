package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/elphick/df-eval/ecode"
	logcfg "github.com/elphick/df-eval/logging/logger/config"
	"github.com/elphick/df-eval/validator"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. DFEVAL_ENGINE_PARALLELISM
const EnvPrefix = "DFEVAL"

// Config is the application configuration
type Config struct {
	AppName   string         `mapstructure:"app_name"`
	Engine    *Engine        `mapstructure:"engine" validate:"required"`
	Logger    *logcfg.Config `mapstructure:"logger" validate:"required"`
	Observes  *Observes      `mapstructure:"observes"`
	Resolvers []*Resolver    `mapstructure:"resolvers" validate:"dive"`
	Viper     *viper.Viper   `mapstructure:"-"`

	mu sync.Mutex
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		AppName:  "dfeval",
		Engine:   DefaultEngine(),
		Logger:   logcfg.Default(),
		Observes: &Observes{Sentry: &Sentry{}, Tracer: &Tracer{}},
	}
}

// LoadConfig loads configuration from configPath. An empty path searches
// ./dfeval.yaml, $HOME/.dfeval/ and the executable's directory.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dfeval")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dfeval")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return fromViper(v)
}

// fromViper builds and validates a Config from an already read viper instance
func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppName:  getStringOrDefault(v, "app_name", "dfeval"),
		Engine:   getEngineConfig(v),
		Logger:   logcfg.GetConfig(v),
		Observes: getObservesConfig(v),
		Viper:    v,
	}

	resolvers, err := getResolverConfigs(v)
	if err != nil {
		return nil, err
	}
	cfg.Resolvers = resolvers

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Resolvers))
	for _, r := range c.Resolvers {
		if seen[r.Name] {
			return &ecode.ConfigurationError{Field: "resolvers", Message: ecode.AlreadyExist(fmt.Sprintf("resolver %q", r.Name))}
		}
		seen[r.Name] = true
	}
	return nil
}

// Resolver returns the named resolver configuration
func (c *Config) Resolver(name string) (*Resolver, bool) {
	for _, r := range c.Resolvers {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Watch re-reads the file on change and passes the rebuilt configuration to
// callback. Invalid reloads are passed as errors and the previous
// configuration stays in place.
func (c *Config) Watch(callback func(*Config, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Viper == nil || c.Viper.ConfigFileUsed() == "" {
		return &ecode.ConfigurationError{Message: "configuration was not loaded from a file"}
	}

	v := c.Viper
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write | fsnotify.Create) {
			return
		}
		callback(fromViper(v))
	})
	v.WatchConfig()
	return nil
}
