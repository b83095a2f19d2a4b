// Package cli implements the sigil-earn command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/sigil-earn/internal/config"
	"github.com/mrz1836/sigil-earn/internal/metrics"
	"github.com/mrz1836/sigil-earn/internal/output"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Command groups shown in help output.
const (
	groupEarn   = "earn"
	groupConfig = "config"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	networkFlag  string
	rpcFlag      string
	walletFlag   string
	accountFlag  int
	mnemonicFile string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    = zerolog.Nop()
	logCloser io.Closer
	formatter *output.Formatter
	mets      *metrics.Metrics
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sigil-earn",
	Short: "Move AVAX between the C-Chain and P-Chain for staking",
	Long: `sigil-earn moves funds between the Avalanche C-Chain and P-Chain with
an export followed by an import, and recovers funds left in atomic memory
when an import never lands.

Example:
  sigil-earn deposit 25 --network fuji
  sigil-earn claim 1.5 --stake 2000 --duration 14d --supply 450000000
  sigil-earn recover
  sigil-earn status`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command and prints any error to stderr. Interrupts
// stop a flow before its export commits; a committed export still imports.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(rootCmd.ErrOrStderr(), err, format)
		cleanup()
	}
	return err
}

// ExitCode returns the process exit code for an error.
func ExitCode(err error) int {
	return earnerr.ExitCode(err)
}

// initGlobals loads configuration and builds the logger and formatter.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if errors.Is(err, earnerr.ErrConfigNotFound) {
		cfg = config.Defaults()
		cfg.Home = home
	} else if err != nil {
		return err
	}

	config.ApplyEnvironment(cfg)
	applyFlags(cmd)

	logger, logCloser, err = config.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		// A broken log path must not block fund movement.
		logger, logCloser = zerolog.Nop(), nil
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), cmd.OutOrStdout())
	mets = metrics.New()
	return nil
}

// applyFlags layers explicitly set flags over config and environment.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Console = true
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}
	if flags.Changed("network") {
		cfg.Network = networkFlag
	}
	if flags.Changed("rpc") {
		cfg.RPC.URL = rpcFlag
	}
	if flags.Changed("wallet") {
		cfg.Wallet.ID = walletFlag
	}
	if flags.Changed("account") && accountFlag >= 0 {
		cfg.Wallet.AccountIndex = uint32(accountFlag) //nolint:gosec // checked non-negative
	}
	if flags.Changed("mnemonic-file") {
		cfg.Wallet.MnemonicFile = mnemonicFile
	}
}

// cleanup flushes metrics and releases the log file.
func cleanup() {
	if cfg != nil && cfg.Metrics.Textfile != "" && mets != nil {
		if err := mets.WriteTextfile(config.ExpandHome(cfg.Metrics.Textfile)); err != nil {
			logger.Warn().Err(err).Msg("failed to write metrics textfile")
		}
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupEarn, Title: "Staking Transfers:"},
		&cobra.Group{ID: groupConfig, Title: "Other Commands:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&homeDir, "home", "", "sigil-earn data directory (default: ~/.sigil-earn)")
	pf.StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&networkFlag, "network", "", "network: mainnet or fuji")
	pf.StringVar(&rpcFlag, "rpc", "", "Avalanche node base URL")
	pf.StringVar(&walletFlag, "wallet", "", "wallet id used to key the journal")
	pf.IntVar(&accountFlag, "account", 0, "account index (m/44'/9000'/0'/0/<index>)")
	pf.StringVar(&mnemonicFile, "mnemonic-file", "", "file holding the BIP39 mnemonic")
}
