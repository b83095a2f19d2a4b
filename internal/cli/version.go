package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/sigil-earn/internal/output"
	versionpkg "github.com/mrz1836/sigil-earn/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	versionCheck bool

	// newVersionClient builds the release client. Tests replace it.
	newVersionClient = versionpkg.NewClient
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Example: `  sigil-earn version
  sigil-earn version --check`,
	GroupID: groupConfig,
	Args:    cobra.NoArgs,
	RunE:    runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "compare against the latest published release")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := versionpkg.Get()
	if versionCheck {
		ctx, cancel := commandTimeout(cmd, versionpkg.DefaultTimeout)
		defer cancel()

		checked, err := newVersionClient().Check(ctx, info)
		if err != nil {
			// A failed lookup still prints the local build.
			logger.Debug().Err(err).Msg("release lookup failed")
			output.Warn(cmd.ErrOrStderr(), "could not check for a newer release")
		} else {
			info = checked
		}
	}
	return formatter.Print(info)
}
