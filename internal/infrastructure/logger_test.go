package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tsmathis/Dilatometry-Analyst/internal/config"
)

func decodeLine(t *testing.T, line []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(line), &entry), "log output is not valid JSON: %s", line)
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	fs := afero.NewMemMapFs()
	var console bytes.Buffer
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: "logs/test.log",
	}

	logger, err := InitializeLogger(cfg, fs, &console)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, slog.Default())

	exists, err := afero.Exists(fs, "logs/test.log")
	require.NoError(t, err)
	assert.True(t, exists, "log file was not created")

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := afero.ReadFile(fs, "logs/test.log")
	require.NoError(t, err)

	entry := decodeLine(t, content)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])

	// both: the console sees the same record
	assert.Equal(t, "test message", decodeLine(t, console.Bytes())["msg"])
}

func TestInitializeLoggerOnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var first, second bytes.Buffer
	cfg := config.LoggingConfig{Level: "info", Format: "json", Output: "console"}

	l1, err := InitializeLogger(cfg, afero.NewMemMapFs(), &first)
	require.NoError(t, err)
	l2, err := InitializeLogger(cfg, afero.NewMemMapFs(), &second)
	require.NoError(t, err)

	assert.Same(t, l1, l2)
	l2.Info("hello")
	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestNewLoggerFileRequiresPath(t *testing.T) {
	_, _, err := NewLogger(config.LoggingConfig{Output: "file"}, afero.NewMemMapFs(), nil)
	assert.Error(t, err)
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "text", Output: "console"}, afero.NewMemMapFs(), &buf)
	require.NoError(t, err)
	assert.Nil(t, closer)

	logger.Debug("text output", "stage", "load")
	assert.Contains(t, buf.String(), `msg="text output"`)
	assert.Contains(t, buf.String(), "stage=load")
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, afero.NewMemMapFs(), &buf)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "test-trace-123")
	ctx = WithRunID(ctx, "run-7")
	logger.InfoContext(ctx, "with trace")

	entry := decodeLine(t, buf.Bytes())
	assert.Equal(t, "test-trace-123", entry["trace_id"])
	assert.Equal(t, "run-7", entry["run_id"])

	buf.Reset()
	logger.InfoContext(context.Background(), "without trace")
	entry = decodeLine(t, buf.Bytes())
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "run_id")
}

func TestTraceIDFromSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))

	// an explicit trace ID wins
	assert.Equal(t, "explicit", GetTraceID(WithTraceID(ctx, "explicit")))
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*slog.Logger)
		expected string
		logged   bool
	}{
		{"debug at debug", "debug", func(l *slog.Logger) { l.Debug("m") }, "DEBUG", true},
		{"debug at info", "info", func(l *slog.Logger) { l.Debug("m") }, "", false},
		{"warn at info", "info", func(l *slog.Logger) { l.Warn("m") }, "WARN", true},
		{"info at error", "error", func(l *slog.Logger) { l.Info("m") }, "", false},
		{"warning alias", "warning", func(l *slog.Logger) { l.Warn("m") }, "WARN", true},
		{"unknown defaults to info", "loud", func(l *slog.Logger) { l.Info("m") }, "INFO", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, _, err := NewLogger(config.LoggingConfig{Level: tt.level, Format: "json", Output: "console"}, afero.NewMemMapFs(), &buf)
			require.NoError(t, err)

			tt.logFunc(logger)

			if !tt.logged {
				assert.Empty(t, buf.String())
				return
			}
			assert.Equal(t, tt.expected, decodeLine(t, buf.Bytes())["level"])
		})
	}
}

func TestGenerateTraceID(t *testing.T) {
	id := GenerateTraceID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GenerateTraceID())
	assert.Equal(t, id, GetTraceID(WithTraceID(context.Background(), id)))
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithComponent(logger, "batch").Info("component")
	assert.Equal(t, "batch", decodeLine(t, buf.Bytes())["component"])

	buf.Reset()
	WithError(logger, os.ErrNotExist).Info("error test")
	entry := decodeLine(t, buf.Bytes())
	assert.True(t, strings.Contains(entry["error"].(string), "file does not exist"))

	assert.Same(t, logger, WithError(logger, nil))
}
