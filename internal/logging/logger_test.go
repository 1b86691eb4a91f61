package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/infrascope/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(logging.Config{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("step failed", "error", errors.New("boom"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "boom", rec["err"])
	assert.NotContains(t, rec, "error")
}

func TestNewFromConfig_AutoIsJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(logging.Config{Format: "auto", Output: &buf})
	require.NoError(t, err)

	logger.Info("hello")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewFromConfig_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(logging.Config{Level: "warn", Format: "text", Output: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "error", "x")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "err=x")
}

func TestNewFromConfig_Invalid(t *testing.T) {
	_, err := logging.NewFromConfig(logging.Config{Level: "loud"})
	assert.Error(t, err)

	_, err = logging.NewFromConfig(logging.Config{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
