package config

import (
	"time"

	"github.com/spf13/viper"
)

// Sentry sentry config struct
type Sentry struct {
	Endpoint    string  `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Environment string  `json:"environment" yaml:"environment" mapstructure:"environment"`
	Release     string  `json:"release" yaml:"release" mapstructure:"release"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

func getSentryConfig(v *viper.Viper) *Sentry {
	return &Sentry{
		Endpoint:    v.GetString("observes.sentry.endpoint"),
		Environment: v.GetString("observes.sentry.environment"),
		Release:     v.GetString("observes.sentry.release"),
		SampleRate:  getFloat64OrDefault(v, "observes.sentry.sample_rate", 1.0),
	}
}

// Tracer OTLP tracer config struct. An empty endpoint disables export.
type Tracer struct {
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"` // OTLP gRPC endpoint

	ServiceName    string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `json:"service_version" yaml:"service_version" mapstructure:"service_version"`
	Environment    string `json:"environment" yaml:"environment" mapstructure:"environment"`

	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" mapstructure:"sampling_rate" validate:"gte=0,lte=1"`

	MaxExportBatchSize int           `json:"max_export_batch_size" yaml:"max_export_batch_size" mapstructure:"max_export_batch_size"`
	BatchTimeout       time.Duration `json:"batch_timeout" yaml:"batch_timeout" mapstructure:"batch_timeout"`
	ExportTimeout      time.Duration `json:"export_timeout" yaml:"export_timeout" mapstructure:"export_timeout"`
}

func getTracerConfig(v *viper.Viper) *Tracer {
	return &Tracer{
		Endpoint: v.GetString("observes.tracer.endpoint"),

		ServiceName:    getStringOrDefault(v, "observes.tracer.service_name", "dfeval"),
		ServiceVersion: v.GetString("observes.tracer.service_version"),
		Environment:    v.GetString("observes.tracer.environment"),

		SamplingRate: getFloat64OrDefault(v, "observes.tracer.sampling_rate", 1.0),

		MaxExportBatchSize: getIntOrDefault(v, "observes.tracer.max_export_batch_size", 512),
		BatchTimeout:       getDurationOrDefault(v, "observes.tracer.batch_timeout", 5*time.Second),
		ExportTimeout:      getDurationOrDefault(v, "observes.tracer.export_timeout", 30*time.Second),
	}
}

// Observes observes config struct
type Observes struct {
	Sentry *Sentry `mapstructure:"sentry"`
	Tracer *Tracer `mapstructure:"tracer"`
}

func getObservesConfig(v *viper.Viper) *Observes {
	return &Observes{
		Sentry: getSentryConfig(v),
		Tracer: getTracerConfig(v),
	}
}
