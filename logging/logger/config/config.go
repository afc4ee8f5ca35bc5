package config

import (
	"github.com/spf13/viper"
)

// Config configuration struct
type Config struct {
	Level      int    `json:"level" yaml:"level" mapstructure:"level" validate:"gte=0,lte=6"`
	Format     string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json text"`
	Output     string `json:"output" yaml:"output" mapstructure:"output" validate:"omitempty,oneof=stdout stderr file"`
	OutputFile string `json:"output_file" yaml:"output_file" mapstructure:"output_file" validate:"required_if=Output file"`
}

// Default returns the configuration used when no logger section is set:
// warnings and above, text, on stderr
func Default() *Config {
	return &Config{Level: 3, Format: "text", Output: "stderr"}
}

// GetConfig returns the logger configuration
func GetConfig(v *viper.Viper) *Config {
	if !v.IsSet("logger") {
		return Default()
	}

	c := Default()
	if v.IsSet("logger.level") {
		c.Level = v.GetInt("logger.level")
	}
	if v.IsSet("logger.format") {
		c.Format = v.GetString("logger.format")
	}
	if v.IsSet("logger.output") {
		c.Output = v.GetString("logger.output")
	}
	c.OutputFile = v.GetString("logger.output_file")
	return c
}
