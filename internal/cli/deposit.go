package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/sigil-earn/internal/chain"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var skipRecovery bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var depositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Move AVAX from the C-Chain to the P-Chain",
	Long: `Export AVAX from the C-Chain and import it on the P-Chain so it can be
staked. The amount is in AVAX and arrives on the P-Chain intact; the
import fee is added to the export.

Funds left in atomic memory by an earlier transfer are swept first unless
--skip-recovery is given.`,
	Example: `  sigil-earn deposit 25
  sigil-earn deposit 0.5 --network fuji -o json`,
	GroupID: groupEarn,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeposit,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	depositCmd.Flags().BoolVar(&skipRecovery, "skip-recovery", false, "do not sweep pending funds before depositing")
	rootCmd.AddCommand(depositCmd)
}

func runDeposit(cmd *cobra.Command, args []string) error {
	amount, err := chain.ParseAVAX(args[0], earnerr.ErrInvalidAmount)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	progress := cmd.ErrOrStderr()
	if !skipRecovery {
		if err := recoverPending(ctx, rt, progress); err != nil {
			return err
		}
	}

	res, err := rt.service.Deposit(ctx, rt.account, amount, flowOptions(progress)...)
	if err != nil {
		return err
	}
	return formatter.Print(newTransferOutput(rt, res, amount))
}

// recoverPending sweeps atomic memory when the journal still holds entries
// for the account.
func recoverPending(ctx context.Context, rt *runtime, progress io.Writer) error {
	pending, err := rt.journal.Pending(rt.account.Key())
	if err != nil {
		return earnerr.WithCause(earnerr.ErrGeneral, err, map[string]string{"journal": rt.journal.Path()})
	}
	if len(pending) == 0 {
		return nil
	}

	logger.Info().Int("entries", len(pending)).Msg("recovering pending transfers")
	if _, err := rt.service.Recover(ctx, rt.account, flowOptions(progress)...); err != nil {
		return earnerr.WithSuggestion(err, "Run 'sigil-earn recover' or retry with --skip-recovery")
	}
	return nil
}
