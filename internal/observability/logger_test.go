// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/config"
)

// syncBuffer adapts a bytes.Buffer to zapcore.WriteSyncer so Initialize can
// write straight into memory during tests.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format produces readable output", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
		}, &buf)

		GetLogger().Info("This is a test message.")

		output := buf.String()
		assert.Contains(t, output, "INFO", "Output should contain the log level")
		assert.Contains(t, output, "This is a test message.", "Output should contain the message")
		assert.Contains(t, output, "TestService.", "Output should contain the named component")
	})

	t.Run("json format produces structured output", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		}, &buf)

		GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))

		var logEntry map[string]interface{}
		err := json.Unmarshal(buf.Bytes(), &logEntry)
		require.NoError(t, err, "Log output should be valid JSON")
		assert.Equal(t, "WARN", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, &buf)

		logger := GetLogger()
		logger.Debug("should be suppressed")
		logger.Info("should appear")

		output := buf.String()
		assert.NotContains(t, output, "should be suppressed")
		assert.Contains(t, output, "should appear")
	})

	t.Run("writes to a log file if configured", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		logFile := filepath.Join(t.TempDir(), "webpilot-test.log")
		var buf syncBuffer
		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, &buf)

		GetLogger().Info("file sink message")
		Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		// The file sink is always JSON regardless of console format.
		assert.Contains(t, string(data), `"file sink message"`)
	})

	t.Run("initialization happens exactly once", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var first, second syncBuffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, &first)
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, &second)

		GetLogger().Info("routed to the first writer")
		assert.True(t, strings.Contains(first.String(), "routed to the first writer"))
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerBeforeInitialization(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	logger := GetLogger()
	require.NotNil(t, logger, "GetLogger must always return a usable logger")
}
