package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/metrics"
)

// Method labels used for metrics and logs.
const (
	MethodBalance     = "balance"
	MethodFeeBaseline = "fee_baseline"
	MethodSubmit      = "submit"
	MethodStatus      = "status"
	MethodEscrowUTXOs = "escrow_utxos"
)

// Compile-time interface check
var _ chain.Gateway = (*Instrumented)(nil)

// Instrumented paces, times and logs every call to the wrapped gateway.
type Instrumented struct {
	next    chain.Gateway
	limiter *chain.RateLimiter
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewInstrumented wraps next. A nil limiter disables pacing; nil metrics
// disables recording.
func NewInstrumented(next chain.Gateway, limiter *chain.RateLimiter, m *metrics.Metrics, logger zerolog.Logger) *Instrumented {
	return &Instrumented{
		next:    next,
		limiter: limiter,
		metrics: m,
		log:     logger.With().Str("component", "gateway").Logger(),
	}
}

func (i *Instrumented) wait(ctx context.Context, ledger chain.ID) error {
	if i.limiter == nil {
		return nil
	}
	return i.limiter.Wait(ctx, ledger)
}

func (i *Instrumented) observe(method string, ledger chain.ID, started time.Time, err error) {
	elapsed := time.Since(started)
	i.metrics.RecordGatewayCall(method, ledger.String(), elapsed, err)

	ev := i.log.Debug()
	if err != nil {
		ev = i.log.Warn().Err(err)
	}
	ev.Str("method", method).Str("ledger", ledger.String()).Dur("elapsed", elapsed).Msg("gateway call")
}

// Balance implements chain.Gateway.
func (i *Instrumented) Balance(ctx context.Context, address string, ledger chain.ID) (*big.Int, error) {
	if err := i.wait(ctx, ledger); err != nil {
		return nil, err
	}
	started := time.Now()
	b, err := i.next.Balance(ctx, address, ledger)
	i.observe(MethodBalance, ledger, started, err)
	return b, err
}

// FeeBaseline implements chain.Gateway.
func (i *Instrumented) FeeBaseline(ctx context.Context, ledger chain.ID) (*chain.Fee, error) {
	if err := i.wait(ctx, ledger); err != nil {
		return nil, err
	}
	started := time.Now()
	fee, err := i.next.FeeBaseline(ctx, ledger)
	i.observe(MethodFeeBaseline, ledger, started, err)
	return fee, err
}

// Submit implements chain.Gateway.
func (i *Instrumented) Submit(ctx context.Context, tx *chain.SignedTx, ledger chain.ID) (string, error) {
	if err := i.wait(ctx, ledger); err != nil {
		return "", err
	}
	started := time.Now()
	id, err := i.next.Submit(ctx, tx, ledger)
	i.observe(MethodSubmit, ledger, started, err)
	return id, err
}

// Status implements chain.Gateway.
func (i *Instrumented) Status(ctx context.Context, txID string, ledger chain.ID) (chain.TxStatus, error) {
	if err := i.wait(ctx, ledger); err != nil {
		return chain.StatusUnknown, err
	}
	started := time.Now()
	s, err := i.next.Status(ctx, txID, ledger)
	i.observe(MethodStatus, ledger, started, err)
	return s, err
}

// EscrowUTXOs implements chain.Gateway.
func (i *Instrumented) EscrowUTXOs(ctx context.Context, account chain.Account, ledger chain.ID) (chain.UTXOSet, error) {
	if err := i.wait(ctx, ledger); err != nil {
		return chain.UTXOSet{}, err
	}
	started := time.Now()
	set, err := i.next.EscrowUTXOs(ctx, account, ledger)
	i.observe(MethodEscrowUTXOs, ledger, started, err)
	return set, err
}
