package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sigil-earn/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected config.LogLevel
	}{
		{"off lowercase", "off", config.LogLevelOff},
		{"off uppercase", "OFF", config.LogLevelOff},
		{"none", "none", config.LogLevelOff},
		{"error", "error", config.LogLevelError},
		{"warn", "warn", config.LogLevelWarn},
		{"warning", "WARNING", config.LogLevelWarn},
		{"info", "info", config.LogLevelInfo},
		{"debug", "debug", config.LogLevelDebug},
		{"with whitespace", "  debug  ", config.LogLevelDebug},
		{"invalid returns info", "invalid", config.LogLevelInfo},
		{"empty returns info", "", config.LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_StringAndZerolog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level config.LogLevel
		str   string
		zl    zerolog.Level
	}{
		{config.LogLevelOff, "off", zerolog.Disabled},
		{config.LogLevelError, "error", zerolog.ErrorLevel},
		{config.LogLevelWarn, "warn", zerolog.WarnLevel},
		{config.LogLevelInfo, "info", zerolog.InfoLevel},
		{config.LogLevelDebug, "debug", zerolog.DebugLevel},
	}
	for _, tc := range tests {
		t.Run(tc.str, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.str, tc.level.String())
			assert.Equal(t, tc.zl, tc.level.Zerolog())
			assert.Equal(t, tc.level, config.ParseLogLevel(tc.level.String()))
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "earn.log")
	logger, closer, err := config.NewLogger(config.LoggingConfig{
		Level:     "info",
		File:      path,
		MaxSizeMB: 1,
	}, nil)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("leg", "export").Msg("submitted")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(data), `"leg":"export"`)
	assert.Contains(t, string(data), `"app":"sigil-earn"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLogger_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := config.NewLogger(config.LoggingConfig{
		Level:   "warn",
		Console: true,
	}, &buf)
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
	assert.NotContains(t, buf.String(), "quiet")
}

func TestNewLogger_Off(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "earn.log")
	logger, closer, err := config.NewLogger(config.LoggingConfig{
		Level:   "off",
		File:    path,
		Console: true,
	}, &buf)
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	logger.Error().Msg("nothing")
	assert.Empty(t, buf.String())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewLogger_NoSinks(t *testing.T) {
	t.Parallel()

	logger, closer, err := config.NewLogger(config.LoggingConfig{Level: "debug"}, nil)
	require.NoError(t, err)
	require.NotNil(t, closer)
	logger.Info().Msg("dropped")
	require.NoError(t, closer.Close())
}
