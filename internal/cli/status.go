package cli

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/journal"
	"github.com/mrz1836/sigil-earn/internal/output"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var statusOffline bool

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show balances, atomic memory and stuck transfers",
	Long: `Show the account's balance on both ledgers, the funds waiting in atomic
memory and any transfers recorded as stuck.

With --offline only the stuck-transfer journal is read; no key material or
node is needed.`,
	Example: `  sigil-earn status
  sigil-earn status --offline -o json`,
	GroupID: groupEarn,
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	statusCmd.Flags().BoolVar(&statusOffline, "offline", false, "only read the local journal")
	rootCmd.AddCommand(statusCmd)
}

// LedgerStatus is one ledger's view of the account.
type LedgerStatus struct {
	Ledger      string `json:"ledger"`
	Address     string `json:"address"`
	Balance     string `json:"balance"`
	Escrow      string `json:"escrow"`
	EscrowUTXOs int    `json:"escrow_utxos"`
}

// StatusOutput is the printed account status.
type StatusOutput struct {
	Network string          `json:"network"`
	Account string          `json:"account,omitempty"`
	Ledgers []LedgerStatus  `json:"ledgers,omitempty"`
	Pending []journal.Entry `json:"pending"`
}

// String renders the text form.
func (o StatusOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Network: %s\n", o.Network)
	if o.Account != "" {
		fmt.Fprintf(&sb, "Account: %s\n", o.Account)
	}

	if len(o.Ledgers) > 0 {
		sb.WriteString("\n")
		t := output.NewTable("LEDGER", "ADDRESS", "BALANCE", "ATOMIC MEMORY")
		for _, l := range o.Ledgers {
			escrow := l.Escrow + " AVAX"
			if l.EscrowUTXOs > 0 {
				escrow += " (" + strconv.Itoa(l.EscrowUTXOs) + " utxos)"
			}
			t.AddRow(l.Ledger, l.Address, l.Balance+" AVAX", escrow)
		}
		sb.WriteString(t.String())
	}

	sb.WriteString("\n")
	if len(o.Pending) == 0 {
		sb.WriteString("No stuck transfers.")
		return sb.String()
	}
	t := output.NewTable("RECORDED", "ACCOUNT", "INTENT", "ROUTE", "AMOUNT", "EXPORT TX")
	for _, e := range o.Pending {
		t.AddRow(
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Account,
			e.Intent,
			e.Source+" -> "+e.Destination,
			e.Amount,
			e.ExportTxID,
		)
	}
	sb.WriteString(t.String())
	sb.WriteString("Run 'sigil-earn recover' to sweep the pending funds.")
	return sb.String()
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusOffline {
		return printOfflineStatus()
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := StatusOutput{Network: rt.network.String(), Account: rt.account.Key()}
	if out.Pending, err = rt.journal.Pending(rt.account.Key()); err != nil {
		return earnerr.WithCause(earnerr.ErrGeneral, err, map[string]string{"journal": rt.journal.Path()})
	}

	qctx, cancel := commandTimeout(cmd, cfg.RPC.Timeout)
	defer cancel()
	if out.Ledgers, err = queryLedgers(qctx, rt); err != nil {
		return err
	}
	return formatter.Print(out)
}

func printOfflineStatus() error {
	network, err := cfg.ChainNetwork()
	if err != nil {
		return err
	}
	store := journal.NewFileStore(filepath.Join(cfg.JournalDir(), journal.FileName))
	entries, err := store.List()
	if err != nil {
		return earnerr.WithCause(earnerr.ErrGeneral, err, map[string]string{"journal": store.Path()})
	}
	return formatter.Print(StatusOutput{Network: network.String(), Pending: entries})
}

// queryLedgers reads balances and atomic memory of both ledgers concurrently.
func queryLedgers(ctx context.Context, rt *runtime) ([]LedgerStatus, error) {
	ledgers := []chain.ID{chain.C, chain.P}
	out := make([]LedgerStatus, len(ledgers))

	g, gctx := errgroup.WithContext(ctx)
	for i, ledger := range ledgers {
		g.Go(func() error {
			balance, err := rt.gateway.Balance(gctx, rt.account.AddressFor(ledger), ledger)
			if err != nil {
				return earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{"ledger": ledger.String(), "call": "balance"})
			}
			escrow, err := rt.gateway.EscrowUTXOs(gctx, rt.account, ledger)
			if err != nil {
				return earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{"ledger": ledger.String(), "call": "escrow_utxos"})
			}
			out[i] = LedgerStatus{
				Ledger:      ledger.String(),
				Address:     rt.account.AddressFor(ledger),
				Balance:     chain.FormatAVAX(orZero(balance)),
				Escrow:      chain.FormatAVAX(escrow.Total()),
				EscrowUTXOs: len(escrow.UTXOs),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
