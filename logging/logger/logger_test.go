package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elphick/df-eval/ctxutil"
	"github.com/elphick/df-eval/logging/logger/config"
	"github.com/sirupsen/logrus"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	l := &Logger{Logger: logrus.New()}
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)
	l.SetOutput(buf)
	return l
}

func TestTraceIDAttached(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetVersion("v1.2.3")

	ctx := ctxutil.SetTraceID(context.Background(), "trace-123")
	l.Debugf(ctx, "evaluating %s", "a + b")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log entry: %v", err)
	}
	if entry[ctxutil.TraceIDKey] != "trace-123" {
		t.Errorf("expected trace id in entry, got %v", entry)
	}
	if entry[VersionKey] != "v1.2.3" {
		t.Errorf("expected version in entry, got %v", entry)
	}
	if entry["msg"] != "evaluating a + b" {
		t.Errorf("unexpected message %v", entry["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetLevel(logrus.WarnLevel)

	l.Debug(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInitFileOutput(t *testing.T) {
	dir := t.TempDir()
	l := &Logger{Logger: logrus.New()}

	cleanup, err := l.Init(&config.Config{Level: 4, Format: "json", Output: "file", OutputFile: filepath.Join(dir, "dfeval.log")})
	if err != nil {
		t.Fatalf("Init error = %v", err)
	}
	l.Info(context.Background(), "hello")
	cleanup()

	matches, _ := filepath.Glob(filepath.Join(dir, "dfeval.*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one log file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected message in log file, got %q", data)
	}
}

func TestInitRejectsUnknownOutput(t *testing.T) {
	l := &Logger{Logger: logrus.New()}
	if _, err := l.Init(&config.Config{Output: "syslog"}); err == nil {
		t.Errorf("expected error for unknown output")
	}
}
