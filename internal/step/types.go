// Package step implements the export and import legs of a cross-ledger
// transfer: fee lookup, deterministic build, sign, submit, and status polling.
package step

import (
	"fmt"
	"math/big"

	"github.com/mrz1836/sigil-earn/internal/chain"
)

// ExportRequest moves Amount out of Source into atomic memory for Destination.
type ExportRequest struct {
	Account     chain.Account
	Source      chain.ID
	Destination chain.ID
	Amount      *big.Int // nAVAX that will arrive in atomic memory

	// FeeSnapshot, when set, is used instead of querying the fee baseline.
	FeeSnapshot *chain.Fee
	// SourceBalance, when set, is used instead of querying the balance.
	SourceBalance *big.Int
}

// ImportRequest sweeps atomic outputs exported from Source into Destination.
type ImportRequest struct {
	Account     chain.Account
	Source      chain.ID
	Destination chain.ID

	// FeeSnapshot, when set, is used instead of querying the fee baseline.
	FeeSnapshot *chain.Fee
	// UTXOs, when set, is the escrow set to sweep; otherwise it is queried.
	UTXOs *chain.UTXOSet
}

// OutcomeKind is the terminal state of one leg.
type OutcomeKind int

// Leg outcomes.
const (
	Committed OutcomeKind = iota + 1
	Dropped
	StuckUnknown
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Dropped:
		return "dropped"
	case StuckUnknown:
		return "stuck_unknown"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one leg.
type Outcome struct {
	Kind   OutcomeKind
	TxID   string
	Reason string
}

// LegError reports a leg that did not commit. It always carries the
// transaction id when one was issued so the funds can be traced later.
type LegError struct {
	Kind    chain.TxKind
	Ledger  chain.ID
	Outcome Outcome
	Err     error // Classified EarnError
}

func (e *LegError) Error() string {
	if e.Outcome.TxID != "" {
		return fmt.Sprintf("%s on %s (tx %s, %s): %v", e.Kind, e.Ledger, e.Outcome.TxID, e.Outcome.Kind, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Kind, e.Ledger, e.Err)
}

func (e *LegError) Unwrap() error {
	return e.Err
}

// TxID returns the transaction id the leg issued, if any.
func (e *LegError) TxID() string {
	return e.Outcome.TxID
}
