package cli

import (
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Import funds left in atomic memory",
	Long: `Sweep every atomic output waiting for the account on the P-Chain and the
C-Chain, then clear the account's stuck-transfer journal.

Nothing waiting is not an error. Outputs worth less than the import fee
are left in place.`,
	Example: `  sigil-earn recover
  sigil-earn recover --account 2 -o json`,
	GroupID: groupEarn,
	Args:    cobra.NoArgs,
	RunE:    runRecover,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.service.Recover(ctx, rt.account, flowOptions(cmd.ErrOrStderr())...)
	if err != nil {
		return err
	}
	return formatter.Print(newTransferOutput(rt, res, nil))
}
