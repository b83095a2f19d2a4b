package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/sigil-earn/internal/config"
	"github.com/mrz1836/sigil-earn/internal/output"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	Long:    `View and create the sigil-earn configuration file.`,
	GroupID: groupConfig,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.sigil-earn/config.yaml.

An existing file is only replaced with --force.

Example:
  sigil-earn config init
  sigil-earn config init --network fuji --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after environment variables and flags are
applied. Key material is never shown.

Example:
  sigil-earn config show
  sigil-earn config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := config.Path(cfg.Home)

	if _, err := os.Stat(path); err == nil && !configForce {
		return earnerr.WithSuggestion(
			earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{"path": path}),
			"configuration already exists; use --force to overwrite",
		)
	}

	fresh := config.Defaults()
	fresh.Home = cfg.Home
	fresh.Network = cfg.Network
	fresh.RPC.URL = cfg.RPC.URL
	fresh.Wallet.ID = cfg.Wallet.ID
	fresh.Wallet.AccountIndex = cfg.Wallet.AccountIndex
	fresh.Wallet.MnemonicFile = cfg.Wallet.MnemonicFile

	if err := config.Save(fresh, path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if formatter.IsJSON() {
		return output.FormatSuccess(cmd.OutOrStdout(), "configuration initialized at "+path, output.FormatJSON)
	}
	w := cmd.OutOrStdout()
	output.Successf(w, "Configuration initialized at %s", path)
	output.Info(w, "Set wallet.mnemonic_file or SIGIL_EARN_MNEMONIC before moving funds")
	return nil
}

// configView is the printable configuration.
type configView struct {
	Path   string         `json:"path" yaml:"path"`
	RPCURL string         `json:"rpc_url" yaml:"rpc_url"`
	Config *config.Config `json:"config" yaml:"config"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	shown := *cfg
	shown.Wallet.Mnemonic = ""
	shown.Wallet.Passphrase = ""
	view := configView{Path: config.Path(cfg.Home), RPCURL: cfg.RPCURL(), Config: &shown}

	if formatter.IsJSON() {
		return formatter.Print(view)
	}
	data, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
