// Package chaintest provides in-memory Gateway and Signer doubles for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/mrz1836/sigil-earn/internal/chain"
)

// Gateway methods as recorded in Call.Method.
const (
	MethodBalance     = "balance"
	MethodFeeBaseline = "fee_baseline"
	MethodSubmit      = "submit"
	MethodStatus      = "status"
	MethodEscrow      = "escrow_utxos"
)

// Call is one recorded gateway invocation.
type Call struct {
	Method string
	Ledger chain.ID
	Arg    string
}

// Gateway is a scriptable chain.Gateway. Unset hooks fall back to healthy
// defaults: submission returns a deterministic id and every status is Committed.
type Gateway struct {
	mu    sync.Mutex
	calls []Call

	Balances map[chain.ID]*big.Int
	Fees     map[chain.ID]*chain.Fee
	Escrow   map[chain.ID]chain.UTXOSet

	BalanceErr error
	FeeErr     error
	EscrowErr  func(ledger chain.ID, call int) error

	// SubmitFunc overrides submission; call is the 0-based submit count per ledger.
	SubmitFunc func(tx *chain.SignedTx, ledger chain.ID, call int) (string, error)
	// StatusFunc overrides status polling; call is the 0-based count per tx id.
	StatusFunc func(txID string, ledger chain.ID, call int) (chain.TxStatus, error)

	submitCount map[chain.ID]int
	statusCount map[string]int
	escrowCount map[chain.ID]int
	submitted   []*chain.SignedTx
}

// NewGateway returns a gateway with the given balances and default fees:
// 25 nAVAX/gas base fee on C (in wei) and a 1,000,000 nAVAX static fee on P.
func NewGateway() *Gateway {
	return &Gateway{
		Balances: map[chain.ID]*big.Int{},
		Fees: map[chain.ID]*chain.Fee{
			chain.C: {Ledger: chain.C, BaseFee: big.NewInt(25_000_000_000)},
			chain.P: {Ledger: chain.P, StaticFee: big.NewInt(1_000_000)},
		},
		Escrow:      map[chain.ID]chain.UTXOSet{},
		submitCount: map[chain.ID]int{},
		statusCount: map[string]int{},
		escrowCount: map[chain.ID]int{},
	}
}

func (g *Gateway) record(method string, ledger chain.ID, arg string) {
	g.calls = append(g.calls, Call{Method: method, Ledger: ledger, Arg: arg})
}

// Balance implements chain.Gateway.
func (g *Gateway) Balance(_ context.Context, address string, ledger chain.ID) (*big.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(MethodBalance, ledger, address)
	if g.BalanceErr != nil {
		return nil, g.BalanceErr
	}
	if b, ok := g.Balances[ledger]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// FeeBaseline implements chain.Gateway.
func (g *Gateway) FeeBaseline(_ context.Context, ledger chain.ID) (*chain.Fee, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(MethodFeeBaseline, ledger, "")
	if g.FeeErr != nil {
		return nil, g.FeeErr
	}
	fee, ok := g.Fees[ledger]
	if !ok {
		return nil, fmt.Errorf("no fee for ledger %s", ledger) //nolint:err113 // test double
	}
	cp := *fee
	return &cp, nil
}

// Submit implements chain.Gateway.
func (g *Gateway) Submit(_ context.Context, tx *chain.SignedTx, ledger chain.ID) (string, error) {
	g.mu.Lock()
	call := g.submitCount[ledger]
	g.submitCount[ledger]++
	g.record(MethodSubmit, ledger, tx.DigestHex())
	g.submitted = append(g.submitted, tx)
	fn := g.SubmitFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(tx, ledger, call)
	}
	return fmt.Sprintf("%s-%s-%s", tx.Unsigned.Kind, ledger, tx.DigestHex()[:8]), nil
}

// Status implements chain.Gateway.
func (g *Gateway) Status(_ context.Context, txID string, ledger chain.ID) (chain.TxStatus, error) {
	g.mu.Lock()
	call := g.statusCount[txID]
	g.statusCount[txID]++
	g.record(MethodStatus, ledger, txID)
	fn := g.StatusFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(txID, ledger, call)
	}
	return chain.StatusCommitted, nil
}

// EscrowUTXOs implements chain.Gateway.
func (g *Gateway) EscrowUTXOs(_ context.Context, account chain.Account, ledger chain.ID) (chain.UTXOSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := g.escrowCount[ledger]
	g.escrowCount[ledger]++
	g.record(MethodEscrow, ledger, account.Key())
	if g.EscrowErr != nil {
		if err := g.EscrowErr(ledger, call); err != nil {
			return chain.UTXOSet{}, err
		}
	}
	set, ok := g.Escrow[ledger]
	if !ok {
		return chain.UTXOSet{Ledger: ledger, SourceChain: ledger.Counterpart()}, nil
	}
	return set, nil
}

// SetEscrow replaces the atomic UTXOs importable into ledger.
func (g *Gateway) SetEscrow(ledger chain.ID, utxos ...chain.UTXO) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Escrow[ledger] = chain.UTXOSet{Ledger: ledger, SourceChain: ledger.Counterpart(), UTXOs: utxos}
}

// Calls returns a copy of every recorded call in order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}

// Count returns how many times method was called, optionally for one ledger.
func (g *Gateway) Count(method string, ledger ...chain.ID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Method != method {
			continue
		}
		if len(ledger) > 0 && c.Ledger != ledger[0] {
			continue
		}
		n++
	}
	return n
}

// Submitted returns every signed transaction handed to Submit.
func (g *Gateway) Submitted() []*chain.SignedTx {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*chain.SignedTx, len(g.submitted))
	copy(out, g.submitted)
	return out
}

// Signer is a chain.Signer that "signs" with the digest itself.
type Signer struct {
	mu     sync.Mutex
	signed []*chain.UnsignedTx
	Err    error
}

// Sign implements chain.Signer.
func (s *Signer) Sign(_ context.Context, tx *chain.UnsignedTx, _ uint32, _ chain.ID) (*chain.SignedTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	s.signed = append(s.signed, tx)
	return &chain.SignedTx{Unsigned: tx, Digest: digest, Signature: digest[:]}, nil
}

// Signed returns every transaction passed to Sign.
func (s *Signer) Signed() []*chain.UnsignedTx {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*chain.UnsignedTx, len(s.signed))
	copy(out, s.signed)
	return out
}

// Account returns a fixture account.
func Account() chain.Account {
	return chain.Account{
		WalletID:      "main",
		Index:         0,
		EVMAddress:    "0x8db97C7cEcE249c2b98bDC0226Cc4C2A57BF52FC",
		AtomicAddress: "C-fuji1qjm2xvn3x0yq8kuhg0cnhlqluexx8ae9jh2zxg",
		PAddress:      "P-fuji1qjm2xvn3x0yq8kuhg0cnhlqluexx8ae9jh2zxg",
	}
}
