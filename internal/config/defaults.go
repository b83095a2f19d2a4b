package config

import (
	"time"

	"github.com/mrz1836/sigil-earn/internal/retry"
	"github.com/mrz1836/sigil-earn/internal/step"
)

// Public Avalanche API nodes. Both serve /ext/bc/C/rpc, /ext/bc/C/avax,
// /ext/bc/P and /ext/info.
const (
	DefaultMainnetRPCURL = "https://api.avax.network"
	DefaultFujiRPCURL    = "https://api.avax-test.network"
)

// Polling defaults. Eight polls at 30s is roughly four minutes.
const (
	DefaultStatusInterval     = step.DefaultStatusInterval
	DefaultTestStatusInterval = 5 * time.Second
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.sigil-earn",
		Network: "mainnet",
		RPC: RPCConfig{
			RateLimit: 5,
			Burst:     10,
			Timeout:   30 * time.Second,
		},
		Wallet: WalletConfig{
			ID:           "main",
			AccountIndex: 0,
		},
		Retry: RetryConfig{
			SubmitAttempts:    retry.SubmitAttempts,
			SubmitInterval:    step.DefaultSubmitInterval,
			StatusAttempts:    retry.StatusAttempts,
			BaseFeeMultiplier: step.DefaultBaseFeeMultiplier,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "~/.sigil-earn/sigil-earn.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
