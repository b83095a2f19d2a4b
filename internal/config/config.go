// Package config provides configuration management for sigil-earn.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/ledger"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Network string        `yaml:"network"`
	RPC     RPCConfig     `yaml:"rpc"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Retry   RetryConfig   `yaml:"retry"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RPCConfig defines the node endpoint and client-side pacing.
type RPCConfig struct {
	URL       string        `yaml:"url"` // Empty selects the network default
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
	Timeout   time.Duration `yaml:"timeout"`
}

// WalletConfig selects the key material and account.
type WalletConfig struct {
	ID           string `yaml:"id"`
	AccountIndex uint32 `yaml:"account_index"`
	MnemonicFile string `yaml:"mnemonic_file"`
	// Mnemonic and Passphrase are only ever read from the environment.
	Mnemonic   string `yaml:"-" json:"-"`
	Passphrase string `yaml:"-" json:"-"`
}

// RetryConfig tunes submission and status polling.
type RetryConfig struct {
	SubmitAttempts    int           `yaml:"submit_attempts"`
	SubmitInterval    time.Duration `yaml:"submit_interval"`
	StatusAttempts    int           `yaml:"status_attempts"`
	StatusInterval    time.Duration `yaml:"status_interval"` // Zero selects the network default
	BaseFeeMultiplier int           `yaml:"base_fee_multiplier"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig defines where Prometheus metrics are written.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path, empty disables
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, earnerr.WithDetails(earnerr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, earnerr.WithCause(earnerr.ErrConfigInvalid, err, map[string]string{"path": path})
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(ExpandHome(home), "config.yaml")
}

// DefaultHome returns the default sigil-earn home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sigil-earn"
	}
	return filepath.Join(home, ".sigil-earn")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks the network name and RPC URL. Nothing is dialed.
func (c *Config) Validate() error {
	if _, err := c.ChainNetwork(); err != nil {
		return err
	}
	if _, err := ledger.ValidateURL(c.RPCURL()); err != nil {
		return err
	}
	if c.Retry.SubmitAttempts < 0 || c.Retry.StatusAttempts < 0 {
		return earnerr.WithDetails(earnerr.ErrConfigInvalid, map[string]string{"retry": "attempts must not be negative"})
	}
	if c.Retry.SubmitInterval < 0 || c.Retry.StatusInterval < 0 {
		return earnerr.WithDetails(earnerr.ErrConfigInvalid, map[string]string{"retry": "intervals must not be negative"})
	}
	return nil
}

// ChainNetwork parses the configured network, suggesting the closest
// known name on a typo.
func (c *Config) ChainNetwork() (chain.Network, error) {
	if n, ok := chain.ParseNetwork(c.Network); ok {
		return n, nil
	}
	err := earnerr.WithDetails(earnerr.ErrConfigInvalid, map[string]string{"network": c.Network})
	if s := SuggestNetwork(c.Network); s != "" {
		return "", earnerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", s))
	}
	return "", earnerr.WithSuggestion(err, "use one of: mainnet, fuji")
}

// SuggestNetwork returns the known network name closest to s, or "" when
// nothing is within two edits.
func SuggestNetwork(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	best, bestDist := "", 3
	for _, n := range chain.Networks() {
		if d := levenshtein.ComputeDistance(s, n.String()); d < bestDist {
			best, bestDist = n.String(), d
		}
	}
	return best
}

// RPCURL returns the configured node URL or the network default.
func (c *Config) RPCURL() string {
	if u := strings.TrimSpace(c.RPC.URL); u != "" {
		return u
	}
	n, _ := chain.ParseNetwork(c.Network)
	if n == chain.Fuji {
		return DefaultFujiRPCURL
	}
	return DefaultMainnetRPCURL
}

// StatusInterval returns the status polling interval. Test networks poll
// faster by default.
func (c *Config) StatusInterval() time.Duration {
	if c.Retry.StatusInterval > 0 {
		return c.Retry.StatusInterval
	}
	if n, _ := chain.ParseNetwork(c.Network); n.IsTest() {
		return DefaultTestStatusInterval
	}
	return DefaultStatusInterval
}

// JournalDir returns the directory holding the stuck-funds journal.
func (c *Config) JournalDir() string {
	return ExpandHome(c.Home)
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}
