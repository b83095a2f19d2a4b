package step

import (
	"context"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/metrics"
	"github.com/mrz1836/sigil-earn/internal/retry"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Gas used by atomic transactions on the account ledger.
const (
	ExportGas uint64 = 11_230
	ImportGas uint64 = 10_000

	// DefaultBaseFeeMultiplier pads the market base fee (percent) so the
	// transaction still clears if the base fee rises before inclusion.
	DefaultBaseFeeMultiplier = 120

	DefaultSubmitInterval = 2 * time.Second
	DefaultStatusInterval = 30 * time.Second
)

// Config holds dependencies for the step executor.
type Config struct {
	Gateway chain.Gateway
	Signer  chain.Signer
	Network chain.Network
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	SubmitAttempts    int           // Defaults to retry.SubmitAttempts
	SubmitInterval    time.Duration // Defaults to DefaultSubmitInterval
	StatusAttempts    int           // Defaults to retry.StatusAttempts
	StatusInterval    time.Duration // Defaults to DefaultStatusInterval
	BaseFeeMultiplier int           // Percent, defaults to DefaultBaseFeeMultiplier
}

// Executor runs export and import legs. It holds no mutable state; every
// call is self-contained and safe to run concurrently.
type Executor struct {
	gateway chain.Gateway
	signer  chain.Signer
	network chain.Network
	log     zerolog.Logger
	metrics *metrics.Metrics

	submitAttempts int
	submitBackoff  retry.Backoff
	statusAttempts int
	statusBackoff  retry.Backoff
	feeMultiplier  int64
}

// NewExecutor creates a new step executor.
func NewExecutor(cfg *Config) *Executor {
	e := &Executor{
		gateway:        cfg.Gateway,
		signer:         cfg.Signer,
		network:        cfg.Network,
		log:            cfg.Logger.With().Str("component", "step").Logger(),
		metrics:        cfg.Metrics,
		submitAttempts: cfg.SubmitAttempts,
		statusAttempts: cfg.StatusAttempts,
		feeMultiplier:  int64(cfg.BaseFeeMultiplier),
	}
	if e.network == "" {
		e.network = chain.Mainnet
	}
	if e.submitAttempts <= 0 {
		e.submitAttempts = retry.SubmitAttempts
	}
	if e.statusAttempts <= 0 {
		e.statusAttempts = retry.StatusAttempts
	}
	if e.feeMultiplier <= 0 {
		e.feeMultiplier = DefaultBaseFeeMultiplier
	}

	submitInterval := cfg.SubmitInterval
	if submitInterval <= 0 {
		submitInterval = DefaultSubmitInterval
	}
	statusInterval := cfg.StatusInterval
	if statusInterval <= 0 {
		statusInterval = DefaultStatusInterval
	}
	e.submitBackoff = retry.Constant(submitInterval)
	e.statusBackoff = retry.Constant(statusInterval)

	return e
}

// Network returns the network the executor builds transactions for.
func (e *Executor) Network() chain.Network {
	return e.network
}

// queryPolicy is used for read-only gateway calls a leg depends on.
func queryPolicy[T any](e *Executor) retry.Policy[T] {
	return retry.Policy[T]{
		MaxAttempts: e.submitAttempts,
		Backoff:     e.submitBackoff,
	}
}

// Fee returns the fee in nAVAX for a leg of the given kind on ledger.
// Account-ledger legs price gas at the market base fee; UTXO-ledger legs
// pay the scheduled static fee.
func (e *Executor) Fee(ctx context.Context, kind chain.TxKind, ledger chain.ID, snapshot *chain.Fee) (*big.Int, error) {
	fee := snapshot
	if fee == nil || fee.Ledger != ledger {
		var err error
		fee, err = retry.Do(ctx, queryPolicy[*chain.Fee](e), func(ctx context.Context, _ int) (*chain.Fee, error) {
			return e.gateway.FeeBaseline(ctx, ledger)
		})
		if err != nil {
			return nil, earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{
				"ledger": ledger.String(),
				"call":   "fee_baseline",
			})
		}
	}

	if ledger.IsAccountLedger() {
		gas := ExportGas
		if kind == chain.KindImport {
			gas = ImportGas
		}
		return accountLedgerFee(fee.BaseFee, gas, e.feeMultiplier), nil
	}

	if fee.StaticFee == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(fee.StaticFee), nil
}

// accountLedgerFee converts baseFee (wei/gas) * gas * multiplier% to nAVAX,
// rounding up so the fee is never short by dust.
func accountLedgerFee(baseFee *big.Int, gas uint64, multiplier int64) *big.Int {
	if baseFee == nil {
		return new(big.Int)
	}
	wei := new(big.Int).Mul(baseFee, new(big.Int).SetUint64(gas))
	wei.Mul(wei, big.NewInt(multiplier))
	wei.Quo(wei, big.NewInt(100))

	nAVAX := chain.WeiToNAVAX(wei)
	if chain.NAVAXToWei(nAVAX).Cmp(wei) < 0 {
		nAVAX.Add(nAVAX, big.NewInt(1))
	}
	return nAVAX
}

// submitAndAwait submits a signed transaction and polls it to a terminal
// status. The returned outcome always carries the tx id once one exists.
// Cancellation is honored only before the first submit: an issued
// transaction may commit, so it is always followed to a terminal status.
func (e *Executor) submitAndAwait(ctx context.Context, signed *chain.SignedTx, ledger chain.ID) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{Kind: Dropped, Reason: "not submitted"}, earnerr.WithCause(earnerr.ErrCanceled, err, map[string]string{
			"ledger": ledger.String(),
		})
	}
	ctx = context.WithoutCancel(ctx)

	log := e.log.With().
		Str("kind", signed.Unsigned.Kind.String()).
		Str("ledger", ledger.String()).
		Str("digest", signed.DigestHex()).
		Logger()

	txID, err := retry.Do(ctx, retry.Policy[string]{
		MaxAttempts: e.submitAttempts,
		Backoff:     e.submitBackoff,
		IsSuccess:   func(id string) bool { return id != "" },
	}, func(ctx context.Context, attempt int) (string, error) {
		id, err := e.gateway.Submit(ctx, signed, ledger)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt+1).Msg("submit failed")
		}
		return id, err
	})
	if err != nil {
		log.Error().Err(err).Msg("submission exhausted")
		return Outcome{Kind: Dropped, Reason: "not accepted"}, earnerr.WithCause(earnerr.ErrSubmissionFailed, err, map[string]string{
			"ledger": ledger.String(),
			"digest": signed.DigestHex(),
		})
	}

	log = log.With().Str("tx_id", txID).Logger()
	log.Debug().Msg("submitted, awaiting commit")

	status, err := retry.Do(ctx, retry.Policy[chain.TxStatus]{
		MaxAttempts: e.statusAttempts,
		Backoff:     e.statusBackoff,
		IsSuccess:   func(s chain.TxStatus) bool { return s == chain.StatusCommitted },
		IsStopping:  func(s chain.TxStatus) bool { return s == chain.StatusDropped },
	}, func(ctx context.Context, attempt int) (chain.TxStatus, error) {
		s, err := e.gateway.Status(ctx, txID, ledger)
		log.Debug().Err(err).Str("status", string(s)).Int("attempt", attempt+1).Msg("polled status")
		return s, err
	})

	switch {
	case err == nil:
		return Outcome{Kind: Committed, TxID: txID}, nil
	case retry.IsStopped(err):
		return Outcome{Kind: Dropped, TxID: txID, Reason: string(status)}, err
	default:
		return Outcome{Kind: StuckUnknown, TxID: txID, Reason: string(status)}, err
	}
}

func (e *Executor) recordLeg(kind chain.TxKind, ledger chain.ID, outcome string, started time.Time) {
	e.metrics.RecordLeg(kind.String(), ledger.String(), outcome, time.Since(started))
}

func validateLedgers(source, destination chain.ID) error {
	if !source.IsValid() || !destination.IsValid() || source == destination {
		return earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
			"source":      source.String(),
			"destination": destination.String(),
		})
	}
	if source != chain.C && destination != chain.C {
		// Staking moves only between the account ledger and a UTXO ledger.
		return earnerr.WithDetails(earnerr.ErrNotSupported, map[string]string{
			"source":      source.String(),
			"destination": destination.String(),
		})
	}
	return nil
}
