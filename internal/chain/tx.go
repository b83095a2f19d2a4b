package chain

import (
	"encoding/hex"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/zeebo/blake3"
)

// TxKind distinguishes the two legs of a cross-ledger transfer.
type TxKind uint8

// Transfer legs.
const (
	KindExport TxKind = iota + 1
	KindImport
)

// String returns the leg name.
func (k TxKind) String() string {
	switch k {
	case KindExport:
		return "export"
	case KindImport:
		return "import"
	default:
		return "unknown"
	}
}

// UTXO is an atomic output sitting in shared memory between two ledgers.
type UTXO struct {
	ID          string `json:"id"`
	TxID        string `json:"tx_id"`
	OutputIndex uint32 `json:"output_index"`
	Amount      uint64 `json:"amount"` // nAVAX
	Address     string `json:"address"`
}

// UTXOSet is every atomic output importable into Ledger from SourceChain.
type UTXOSet struct {
	Ledger      ID     `json:"ledger"`
	SourceChain ID     `json:"source_chain"`
	UTXOs       []UTXO `json:"utxos"`
}

// IsEmpty reports whether there is nothing to import.
func (s UTXOSet) IsEmpty() bool {
	return len(s.UTXOs) == 0
}

// Total returns the summed amount of the set in nAVAX.
func (s UTXOSet) Total() *big.Int {
	total := new(big.Int)
	for _, u := range s.UTXOs {
		total.Add(total, new(big.Int).SetUint64(u.Amount))
	}
	return total
}

// IDs returns the sorted UTXO ids of the set.
func (s UTXOSet) IDs() []string {
	ids := make([]string, 0, len(s.UTXOs))
	for _, u := range s.UTXOs {
		ids = append(ids, u.ID)
	}
	slices.Sort(ids)
	return ids
}

// UnsignedTx is a ledger-specific unsigned export or import transaction.
// Two transactions built from the same request encode to the same bytes,
// which keeps re-signing after a failed attempt idempotent.
type UnsignedTx struct {
	Kind               TxKind   `json:"kind"`
	Network            Network  `json:"network"`
	SourceChain        ID       `json:"source_chain"`
	DestinationChain   ID       `json:"destination_chain"`
	DestinationAddress string   `json:"destination_address"`
	Amount             *big.Int `json:"amount"` // nAVAX moved (exports) or swept (imports)
	Fee                *big.Int `json:"fee"`    // nAVAX burned
	AccountIndex       uint32   `json:"account_index"`
	Inputs             []string `json:"inputs,omitempty"` // Sorted atomic UTXO ids (imports)
}

// encodedTx is the canonical field order hashed into the digest.
type encodedTx struct {
	Kind               uint8
	NetworkID          uint32
	SourceChain        string
	DestinationChain   string
	DestinationAddress string
	Amount             *big.Int
	Fee                *big.Int
	AccountIndex       uint32
	Inputs             []string
}

// Bytes returns the canonical encoding of the transaction.
func (t *UnsignedTx) Bytes() ([]byte, error) {
	inputs := slices.Clone(t.Inputs)
	slices.Sort(inputs)
	if inputs == nil {
		inputs = []string{}
	}
	return rlp.EncodeToBytes(encodedTx{
		Kind:               uint8(t.Kind),
		NetworkID:          t.Network.NetworkID(),
		SourceChain:        t.SourceChain.String(),
		DestinationChain:   t.DestinationChain.String(),
		DestinationAddress: t.DestinationAddress,
		Amount:             orZero(t.Amount),
		Fee:                orZero(t.Fee),
		AccountIndex:       t.AccountIndex,
		Inputs:             inputs,
	})
}

// Digest returns the BLAKE3 digest of the canonical encoding.
func (t *UnsignedTx) Digest() ([32]byte, error) {
	b, err := t.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(b), nil
}

// Equal reports whether two transactions encode identically.
func (t *UnsignedTx) Equal(o *UnsignedTx) bool {
	if t == nil || o == nil {
		return t == o
	}
	a, errA := t.Digest()
	b, errB := o.Digest()
	return errA == nil && errB == nil && a == b
}

// SignedTx is the immutable output of a Signer.
type SignedTx struct {
	Unsigned  *UnsignedTx `json:"unsigned"`
	Digest    [32]byte    `json:"-"`
	Signature []byte      `json:"signature"`
}

// DigestHex returns the signed digest as hex, used to correlate logs.
func (s *SignedTx) DigestHex() string {
	return hex.EncodeToString(s.Digest[:])
}

// Bytes returns the wire encoding submitted to a ledger: the canonical
// unsigned encoding followed by its signature.
func (s *SignedTx) Bytes() ([]byte, error) {
	unsigned, err := s.Unsigned.Bytes()
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes([][]byte{unsigned, s.Signature})
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
