package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvHome           = "SIGIL_EARN_HOME"
	EnvNetwork        = "SIGIL_EARN_NETWORK"
	EnvRPC            = "SIGIL_EARN_RPC"
	EnvLogLevel       = "SIGIL_EARN_LOG_LEVEL"
	EnvOutputFormat   = "SIGIL_EARN_OUTPUT_FORMAT"
	EnvStatusInterval = "SIGIL_EARN_STATUS_INTERVAL"
	EnvMnemonic       = "SIGIL_EARN_MNEMONIC" // #nosec G101 -- false positive, this is a const name not a credential
	EnvPassphrase     = "SIGIL_EARN_PASSPHRASE" // #nosec G101 -- false positive, this is a const name not a credential
	EnvVerbose        = "SIGIL_EARN_VERBOSE"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvRPC); v != "" {
		cfg.RPC.URL = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	// Accepts a Go duration ("45s") or whole seconds ("45").
	if v := os.Getenv(EnvStatusInterval); v != "" {
		if d, ok := parseInterval(v); ok {
			cfg.Retry.StatusInterval = d
		}
	}

	if v := os.Getenv(EnvMnemonic); v != "" {
		cfg.Wallet.Mnemonic = v
	}

	if v := os.Getenv(EnvPassphrase); v != "" {
		cfg.Wallet.Passphrase = v
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

func parseInterval(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, secs > 0
	}
	d, err := time.ParseDuration(s)
	return d, err == nil && d > 0
}
