// Package chain provides ledger identifiers, transfer transaction types and the
// narrow interfaces the fund-movement core consumes from the outside world.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

// ID identifies one of the two ledgers funds move between.
type ID string

// Supported ledger identifiers.
const (
	C ID = "C" // Account ledger (EVM balance model)
	P ID = "P" // UTXO ledger (staking/platform)
	X ID = "X" // UTXO exchange ledger, only ever a source of atomic outputs
)

// String returns the ledger identifier string.
func (id ID) String() string {
	return string(id)
}

// IsValid returns true if the ledger ID is known.
func (id ID) IsValid() bool {
	switch id {
	case C, P, X:
		return true
	default:
		return false
	}
}

// IsAccountLedger reports whether the ledger uses the account/balance model.
// Account ledger fees float with the market; UTXO ledger fees are scheduled.
func (id ID) IsAccountLedger() bool {
	return id == C
}

// Counterpart returns the ledger on the other side of a staking transfer.
func (id ID) Counterpart() ID {
	if id == C {
		return P
	}
	return C
}

// ParseID parses a ledger identifier, accepting "c", "C", "c-chain" and so on.
func ParseID(s string) (ID, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "-CHAIN")
	id := ID(s)
	return id, id.IsValid()
}

// Account is an identity holding balances on both ledgers. Values are
// immutable once loaded.
type Account struct {
	WalletID      string `json:"wallet_id"`
	Index         uint32 `json:"index"`
	EVMAddress    string `json:"evm_address"`    // C-Chain hex address (balances)
	AtomicAddress string `json:"atomic_address"` // C-Chain bech32 address owning atomic outputs
	PAddress      string `json:"p_address"`      // P-Chain bech32 address
}

// Key returns the identity used to serialize work per account.
func (a Account) Key() string {
	return fmt.Sprintf("%s/%d", a.WalletID, a.Index)
}

// AddressFor returns the balance-holding address on the given ledger.
func (a Account) AddressFor(ledger ID) string {
	switch ledger {
	case C:
		return a.EVMAddress
	case P, X:
		return a.PAddress
	default:
		return ""
	}
}

// ImportAddressFor returns the address that owns atomic outputs
// destined for the given ledger.
func (a Account) ImportAddressFor(ledger ID) string {
	switch ledger {
	case C:
		return a.AtomicAddress
	case P, X:
		return a.PAddress
	default:
		return ""
	}
}

// TxStatus is a normalized transaction status across both ledgers.
type TxStatus string

// Transaction statuses.
const (
	StatusCommitted TxStatus = "Committed"
	StatusDropped   TxStatus = "Dropped"
	StatusPending   TxStatus = "Pending"
	StatusUnknown   TxStatus = "Unknown"
)

// ParseTxStatus normalizes the status strings reported by the ledgers.
// The account ledger reports "Accepted" where the UTXO ledger reports "Committed".
func ParseTxStatus(s string) TxStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "committed", "accepted":
		return StatusCommitted
	case "dropped", "rejected", "aborted":
		return StatusDropped
	case "processing", "pending":
		return StatusPending
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further status change is expected.
func (s TxStatus) IsTerminal() bool {
	return s == StatusCommitted || s == StatusDropped
}

// Fee is a fee baseline snapshot for one ledger.
type Fee struct {
	Ledger ID `json:"ledger"`
	// BaseFee is the market base fee in wei per gas (account ledger only).
	BaseFee *big.Int `json:"base_fee,omitempty"`
	// StaticFee is the scheduled flat fee in nAVAX (UTXO ledger only).
	StaticFee *big.Int `json:"static_fee,omitempty"`
}

// Gateway submits transactions to either ledger and reads their state.
// Every amount crossing this interface is denominated in nAVAX.
type Gateway interface {
	// Balance returns the spendable balance of address on the ledger.
	Balance(ctx context.Context, address string, ledger ID) (*big.Int, error)

	// FeeBaseline returns the current fee baseline of the ledger.
	FeeBaseline(ctx context.Context, ledger ID) (*Fee, error)

	// Submit issues a signed transaction and returns its id.
	// Resubmitting the same transaction yields the same id.
	Submit(ctx context.Context, tx *SignedTx, ledger ID) (string, error)

	// Status returns the current status of a submitted transaction.
	Status(ctx context.Context, txID string, ledger ID) (TxStatus, error)

	// EscrowUTXOs returns the atomic outputs waiting to be imported into
	// the ledger for the account.
	EscrowUTXOs(ctx context.Context, account Account, ledger ID) (UTXOSet, error)
}

// Signer turns an unsigned transaction into a signed one.
type Signer interface {
	Sign(ctx context.Context, tx *UnsignedTx, accountIndex uint32, ledger ID) (*SignedTx, error)
}
