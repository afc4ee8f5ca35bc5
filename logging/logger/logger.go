package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/elphick/df-eval/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// Key constants
const (
	VersionKey   = "version"
	ComponentKey = "component"
)

// Logger represents logger instance
type Logger struct {
	*logrus.Logger
	version string
	logFile *os.File
	logPath string
	mu      sync.Mutex
	stop    chan struct{}
}

var (
	// stdLogger is the global logger
	stdLogger *Logger
	// once ensures that the logger is initialized only once
	once sync.Once
)

// StdLogger returns the single logger instance
func StdLogger() *Logger {
	once.Do(func() {
		stdLogger = &Logger{
			Logger: logrus.New(),
		}
		stdLogger.SetLevel(logrus.WarnLevel)
		stdLogger.SetFormatter(&logrus.TextFormatter{})
		stdLogger.Logger.SetOutput(os.Stderr)
	})
	return stdLogger
}

// SetVersion sets the version for logging
func (l *Logger) SetVersion(v string) {
	l.version = v
}

// Init initializes the logger with the given configuration
func (l *Logger) Init(c *config.Config) (func(), error) {
	if c == nil {
		c = config.Default()
	}
	l.SetLevel(logrus.Level(c.Level))

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	switch c.Output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "stderr", "":
		l.SetOutput(os.Stderr)
	case "file":
		l.logPath = c.OutputFile
		if l.logPath == "" {
			return nil, fmt.Errorf("logger output is file but output_file is empty")
		}
		if err := l.setupLogFile(); err != nil {
			return nil, err
		}
		l.stop = make(chan struct{})
		go l.periodicLogRotation(l.stop)
	default:
		return nil, fmt.Errorf("unknown logger output %q", c.Output)
	}

	// Return cleanup function
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.stop != nil {
			close(l.stop)
			l.stop = nil
		}
		if l.logFile != nil {
			_ = l.logFile.Close()
			l.logFile = nil
		}
	}, nil
}

// setupLogFile sets up the log file
func (l *Logger) setupLogFile() error {
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return l.rotateLog()
}

// rotateLog rotates the log
func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	logFilePath := fmt.Sprintf("%s.%s.log", strings.TrimSuffix(l.logPath, ".log"), time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.logFile = f
	l.Logger.SetOutput(l.logFile)
	return nil
}

// periodicLogRotation rotates the log every 24 hours until stop is closed
func (l *Logger) periodicLogRotation(stop <-chan struct{}) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := l.rotateLog(); err != nil {
				l.Logger.Errorf("Error rotating log: %v", err)
			}
		}
	}
}

// entryFromContext creates a new log entry with fields from context
func (l *Logger) entryFromContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}

	traceID := getTraceID(ctx)
	if traceID != "" {
		fields[traceKey] = traceID
	}

	if l.version != "" {
		fields[VersionKey] = l.version
	}

	return l.WithFields(fields)
}

// Log methods

// Log logs a message with the given level
func (l *Logger) log(ctx context.Context, level logrus.Level, args ...any) {
	l.entryFromContext(ctx).Log(level, args...)
}

// Logf logs a formatted message
func (l *Logger) logf(ctx context.Context, level logrus.Level, format string, args ...any) {
	l.entryFromContext(ctx).Logf(level, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, args ...any) {
	l.log(ctx, logrus.DebugLevel, args...)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, args ...any) {
	l.log(ctx, logrus.InfoLevel, args...)
}

// Warn logs a warn message
func (l *Logger) Warn(ctx context.Context, args ...any) {
	l.log(ctx, logrus.WarnLevel, args...)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, args ...any) {
	l.log(ctx, logrus.ErrorLevel, args...)
}

// Debugf logs a debug message with format
func (l *Logger) Debugf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.DebugLevel, format, args...)
}

// Infof logs an info message with format
func (l *Logger) Infof(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.InfoLevel, format, args...)
}

// Warnf logs a warn message with format
func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.WarnLevel, format, args...)
}

// Errorf logs an error message with format
func (l *Logger) Errorf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, logrus.ErrorLevel, format, args...)
}

// SetOutput sets the output destination for the logger
func (l *Logger) SetOutput(out io.Writer) {
	l.Logger.SetOutput(out)
}

// SetVersion sets the version for logging
func SetVersion(v string) { StdLogger().SetVersion(v) }

// New initializes the standard logger
func New(c *config.Config) (func(), error) { return StdLogger().Init(c) }

// WithFields returns an entry with the given fields
func WithFields(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	entry := StdLogger().entryFromContext(ctx)
	return entry.WithFields(fields)
}

// WithComponent returns an entry tagged with a component name
func WithComponent(ctx context.Context, component string) *logrus.Entry {
	return WithFields(ctx, logrus.Fields{ComponentKey: component})
}

// Debug logs debug message
func Debug(ctx context.Context, args ...any) { StdLogger().Debug(ctx, args...) }

// Info logs info message
func Info(ctx context.Context, args ...any) { StdLogger().Info(ctx, args...) }

// Warn logs warn message
func Warn(ctx context.Context, args ...any) { StdLogger().Warn(ctx, args...) }

// Error logs error message
func Error(ctx context.Context, args ...any) { StdLogger().Error(ctx, args...) }

// Debugf logs debug message with format
func Debugf(ctx context.Context, format string, args ...any) {
	StdLogger().Debugf(ctx, format, args...)
}

// Infof logs info message with format
func Infof(ctx context.Context, format string, args ...any) {
	StdLogger().Infof(ctx, format, args...)
}

// Warnf logs warn message with format
func Warnf(ctx context.Context, format string, args ...any) {
	StdLogger().Warnf(ctx, format, args...)
}

// Errorf logs error message with format
func Errorf(ctx context.Context, format string, args ...any) {
	StdLogger().Errorf(ctx, format, args...)
}

// SetOutput sets the output destination for the logger
func SetOutput(out io.Writer) { StdLogger().SetOutput(out) }
