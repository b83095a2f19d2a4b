package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/earn"
	"github.com/mrz1836/sigil-earn/internal/output"
)

// TransferOutput is the printed result of a deposit, claim or recovery.
type TransferOutput struct {
	OperationID string   `json:"operation_id"`
	Intent      string   `json:"intent"`
	State       string   `json:"state"`
	Network     string   `json:"network"`
	Account     string   `json:"account"`
	Amount      string   `json:"amount,omitempty"` // AVAX
	ExportTxID  string   `json:"export_tx_id,omitempty"`
	ImportTxIDs []string `json:"import_tx_ids,omitempty"`
}

func newTransferOutput(rt *runtime, res *earn.Result, amount *big.Int) TransferOutput {
	out := TransferOutput{
		OperationID: res.OperationID,
		Intent:      string(res.Intent),
		State:       res.State.String(),
		Network:     rt.network.String(),
		Account:     rt.account.Key(),
		ExportTxID:  res.ExportTxID,
		ImportTxIDs: res.ImportTxIDs,
	}
	if amount != nil {
		out.Amount = chain.FormatAVAX(amount)
	}
	return out
}

// String renders the text form.
func (o TransferOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Operation:  %s (%s)\n", o.OperationID, o.Intent)
	fmt.Fprintf(&sb, "State:      %s\n", o.State)
	fmt.Fprintf(&sb, "Network:    %s\n", o.Network)
	if o.Amount != "" {
		fmt.Fprintf(&sb, "Amount:     %s AVAX\n", o.Amount)
	}
	if o.ExportTxID != "" {
		fmt.Fprintf(&sb, "Export tx:  %s\n", o.ExportTxID)
	}
	for _, id := range o.ImportTxIDs {
		fmt.Fprintf(&sb, "Import tx:  %s\n", id)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// progressObserver prints lifecycle events in text mode. JSON output stays
// a single document so nothing is printed there.
func progressObserver(w io.Writer) earn.Observer {
	if formatter == nil || formatter.IsJSON() {
		return nil
	}
	return func(ev earn.Event) {
		switch ev.Kind {
		case earn.EventExportStarted:
			output.Infof(w, "exporting from %s-Chain", ev.Ledger)
		case earn.EventExportCommitted:
			output.Successf(w, "export committed: %s", ev.TxID)
		case earn.EventImportStarted:
			output.Infof(w, "importing into %s-Chain", ev.Ledger)
		case earn.EventImportCommitted:
			output.Successf(w, "import committed: %s", ev.TxID)
		case earn.EventRecoveryStarted:
			output.Info(w, "checking atomic memory for pending funds")
		case earn.EventRecoveryNeeded:
			output.Warnf(w, "funds left in atomic memory after %s", ev.TxID)
		case earn.EventDone, earn.EventFailed:
			// The final result or error is printed by the command.
		}
	}
}

// flowOptions returns the per-flow options shared by every transfer command.
func flowOptions(w io.Writer) []earn.Option {
	if obs := progressObserver(w); obs != nil {
		return []earn.Option{earn.WithObserver(obs)}
	}
	return nil
}
