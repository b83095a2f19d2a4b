package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"1", "1", true},
		{"true", "true", true},
		{"TRUE", "TRUE", true},
		{"yes", "yes", true},
		{"on", "on", true},
		{"with spaces", "  true  ", true},
		{"0", "0", false},
		{"false", "false", false},
		{"no", "no", false},
		{"off", "off", false},
		{"empty", "", false},
		{"random", "random", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, parseBool(tc.input))
		})
	}
}

func TestParseInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Duration
		ok    bool
	}{
		{"45", 45 * time.Second, true},
		{" 10s ", 10 * time.Second, true},
		{"1m30s", 90 * time.Second, true},
		{"0", 0, false},
		{"-5s", 0, false},
		{"soon", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, ok := parseInterval(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel
func TestApplyEnvironment(t *testing.T) {
	t.Run("home", func(t *testing.T) {
		t.Setenv(EnvHome, "/custom/home")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, "/custom/home", cfg.Home)
	})

	t.Run("network is normalized", func(t *testing.T) {
		t.Setenv(EnvNetwork, " FUJI ")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, "fuji", cfg.Network)
	})

	t.Run("rpc is trimmed", func(t *testing.T) {
		t.Setenv(EnvRPC, "  http://127.0.0.1:9650  ")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, "http://127.0.0.1:9650", cfg.RPC.URL)
		assert.Equal(t, "http://127.0.0.1:9650", cfg.RPCURL())
	})

	t.Run("log level", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "DEBUG")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("output format", func(t *testing.T) {
		t.Setenv(EnvOutputFormat, "JSON")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, "json", cfg.GetOutputFormat())
	})

	t.Run("verbose", func(t *testing.T) {
		t.Setenv(EnvVerbose, "yes")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.True(t, cfg.IsVerbose())
	})

	t.Run("status interval seconds", func(t *testing.T) {
		t.Setenv(EnvStatusInterval, "12")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, 12*time.Second, cfg.StatusInterval())
	})

	t.Run("invalid status interval is ignored", func(t *testing.T) {
		t.Setenv(EnvStatusInterval, "whenever")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, DefaultStatusInterval, cfg.StatusInterval())
	})

	t.Run("mnemonic", func(t *testing.T) {
		t.Setenv(EnvMnemonic, "abandon about")
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, "abandon about", cfg.Wallet.Mnemonic)
	})

	t.Run("unset leaves defaults", func(t *testing.T) {
		cfg := Defaults()
		ApplyEnvironment(cfg)
		assert.Equal(t, Defaults().Network, cfg.Network)
		assert.Empty(t, cfg.RPC.URL)
	})
}
