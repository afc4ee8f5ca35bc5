package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/elphick/df-eval/config"
	"github.com/elphick/df-eval/engine"
	"github.com/elphick/df-eval/logging/logger"
	"github.com/elphick/df-eval/observes"
	"github.com/elphick/df-eval/table"
	"github.com/elphick/df-eval/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const flushTimeout = 2 * time.Second

type globalOptions struct {
	configFile string
}

// app holds everything a command needs once configuration is loaded
type app struct {
	cfg     *config.Config
	engine  *engine.Engine
	cleanup func()
}

// observesReady marks error reporting and tracing as initialized
type observesReady struct{}

func newApp(cfg *config.Config, _ *logger.Logger, _ observesReady, e *engine.Engine) *app {
	return &app{cfg: cfg, engine: e}
}

// loadConfig reads the given file, or the default search paths when
// none is given. Without any file the defaults apply.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	var notFound viper.ConfigFileNotFoundError
	if path == "" && errors.As(err, &notFound) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load config: %w", err)
}

// setupApp loads configuration and builds the app through initApp
func setupApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}
	a, cleanup, err := initApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.cleanup = cleanup
	return a, nil
}

// provideObserves tunes the logger for the terminal and starts error
// reporting and tracing. The cleanup flushes pending traces.
func provideObserves(ctx context.Context, cfg *config.Config, l *logger.Logger) (observesReady, func(), error) {
	noop := func() {}
	l.SetVersion(version.GetVersionInfo().Version)
	if cfg.Logger.Format != "json" && cfg.Logger.Output != "file" && term.IsTerminal(int(os.Stderr.Fd())) {
		l.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	}

	obs := cfg.Observes
	if obs == nil {
		return observesReady{}, noop, nil
	}

	if s := obs.Sentry; s != nil && s.Endpoint != "" {
		release := s.Release
		if release == "" {
			release = version.GetVersionInfo().Version
		}
		if err := observes.NewSentry(&observes.SentryOptions{
			Dsn:         s.Endpoint,
			Name:        cfg.AppName,
			Release:     release,
			Environment: s.Environment,
		}); err != nil {
			return observesReady{}, noop, fmt.Errorf("failed to init sentry: %w", err)
		}
	}

	if t := obs.Tracer; t != nil && t.Endpoint != "" {
		shutdown, err := observes.NewTracer(ctx, &observes.TracerOption{
			URL:                t.Endpoint,
			Name:               t.ServiceName,
			Version:            t.ServiceVersion,
			Environment:        t.Environment,
			SamplingRate:       t.SamplingRate,
			BatchTimeout:       t.BatchTimeout,
			ExportTimeout:      t.ExportTimeout,
			MaxExportBatchSize: t.MaxExportBatchSize,
		})
		if err != nil {
			return observesReady{}, noop, fmt.Errorf("failed to init tracer: %w", err)
		}
		return observesReady{}, func() {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warnf(ctx, "failed to flush traces: %v", err)
			}
		}, nil
	}
	return observesReady{}, noop, nil
}

// fail reports a command error before it is returned to cobra
func (a *app) fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	logger.Errorf(ctx, "%v", err)
	observes.CaptureError(err, flushTimeout)
	return err
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// run sets up the app, calls fn and tears everything down
func run(ctx context.Context, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := setupApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, _ = logger.EnsureTraceID(ctx)
	return a.fail(ctx, fn(ctx, a))
}

// readTable reads a CSV table from path, "-" meaning stdin
func readTable(path string, stdin io.Reader) (*table.Table, error) {
	if path == "" || path == "-" {
		return table.ReadCSV(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return table.ReadCSV(f)
}

// writeTable writes t as CSV to path, "" or "-" meaning stdout
func writeTable(path string, stdout io.Writer, t *table.Table) error {
	if path == "" || path == "-" {
		return table.WriteCSV(stdout, t)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := table.WriteCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
