// Package earn orchestrates staking transfers between the account ledger and
// the UTXO ledger: deposits, reward claims, and recovery of funds left in
// atomic memory.
package earn

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/journal"
	"github.com/mrz1836/sigil-earn/internal/metrics"
	"github.com/mrz1836/sigil-earn/internal/retry"
	"github.com/mrz1836/sigil-earn/internal/reward"
	"github.com/mrz1836/sigil-earn/internal/step"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Config holds dependencies for the earn service.
type Config struct {
	Steps   Steps
	Gateway chain.Gateway
	Journal Journal // Optional
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	QueryAttempts int           // Escrow query attempts, defaults to retry.SubmitAttempts
	QueryInterval time.Duration // Defaults to step.DefaultSubmitInterval
	EventBuffer   int           // Defaults to DefaultEventBuffer
	EventDrain    time.Duration // Defaults to DefaultEventDrain
}

// Service runs transfer flows. It keeps no state between calls apart from
// the per-account locks that serialize flows for the same account.
type Service struct {
	steps   Steps
	gateway chain.Gateway
	journal Journal
	log     zerolog.Logger
	metrics *metrics.Metrics

	queryAttempts int
	queryBackoff  retry.Backoff
	eventBuffer   int
	eventDrain    time.Duration

	locks *accountLocks
}

// NewService creates a new earn service.
func NewService(cfg *Config) *Service {
	s := &Service{
		steps:         cfg.Steps,
		gateway:       cfg.Gateway,
		journal:       cfg.Journal,
		log:           cfg.Logger.With().Str("component", "earn").Logger(),
		metrics:       cfg.Metrics,
		queryAttempts: cfg.QueryAttempts,
		eventBuffer:   cfg.EventBuffer,
		eventDrain:    cfg.EventDrain,
		locks:         newAccountLocks(),
	}
	if s.queryAttempts <= 0 {
		s.queryAttempts = retry.SubmitAttempts
	}
	interval := cfg.QueryInterval
	if interval <= 0 {
		interval = step.DefaultSubmitInterval
	}
	s.queryBackoff = retry.Constant(interval)
	return s
}

// Option customizes a single flow.
type Option func(*options)

type options struct {
	observer      Observer
	sourceBalance *big.Int
	fees          map[chain.ID]*chain.Fee
}

// WithObserver delivers lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithSourceBalance supplies the known source ledger balance. A balance
// below the requested amount fails before any ledger call.
func WithSourceBalance(balance *big.Int) Option {
	return func(opts *options) { opts.sourceBalance = balance }
}

// WithFeeSnapshot supplies the fee baseline for fee.Ledger instead of
// querying it.
func WithFeeSnapshot(fee *chain.Fee) Option {
	return func(opts *options) {
		if fee != nil {
			opts.fees[fee.Ledger] = fee
		}
	}
}

// flow is the per-call bookkeeping for one orchestration.
type flow struct {
	result  *Result
	account chain.Account
	opts    options
	events  *dispatcher
	log     zerolog.Logger
}

func (s *Service) start(intent IntentKind, account chain.Account, opts []Option) *flow {
	o := options{fees: map[chain.ID]*chain.Fee{}}
	for _, opt := range opts {
		opt(&o)
	}

	result := &Result{
		OperationID: uuid.NewString(),
		Intent:      intent,
		State:       StateIdle,
	}
	return &flow{
		result:  result,
		account: account,
		opts:    o,
		events: newDispatcher(o.observer, s.eventBuffer, s.eventDrain, s.metrics, Event{
			OperationID: result.OperationID,
			Intent:      intent,
		}),
		log: s.log.With().
			Str("operation_id", result.OperationID).
			Str("intent", string(intent)).
			Str("account", account.Key()).
			Logger(),
	}
}

func (s *Service) fail(f *flow, state State, err error) (*Result, error) {
	f.result.State = state
	f.events.emit(Event{Kind: EventFailed, Err: err})
	s.metrics.RecordFlow(string(f.result.Intent), state.String())
	f.log.Error().Err(err).Str("state", state.String()).Msg("flow failed")
	return f.result, err
}

func (s *Service) done(f *flow) (*Result, error) {
	f.result.State = StateDone
	f.events.emit(Event{Kind: EventDone})
	s.metrics.RecordFlow(string(f.result.Intent), StateDone.String())
	f.log.Info().
		Str("export_tx", f.result.ExportTxID).
		Strs("import_txs", f.result.ImportTxIDs).
		Msg("flow done")
	return f.result, nil
}

// lock serializes flows for the flow's account and honors cancellation
// requested before any ledger work starts.
func (s *Service) lock(ctx context.Context, f *flow) (func(), error) {
	release, err := s.locks.acquire(ctx, f.account.Key())
	if err != nil {
		return nil, earnerr.WithCause(earnerr.ErrCanceled, err, nil)
	}
	if err := ctx.Err(); err != nil {
		release()
		return nil, earnerr.WithCause(earnerr.ErrCanceled, err, nil)
	}
	return release, nil
}

// Deposit moves amount nAVAX from the account ledger to the UTXO ledger so it
// can be staked.
func (s *Service) Deposit(ctx context.Context, account chain.Account, amount *big.Int, opts ...Option) (*Result, error) {
	return s.transfer(ctx, IntentDeposit, account, amount, chain.C, chain.P, nil, opts)
}

// ClaimReward moves a reward of amount nAVAX from the UTXO ledger back to the
// account ledger. The amount is checked against the stake's maximum reward
// before anything is sent.
func (s *Service) ClaimReward(ctx context.Context, account chain.Account, amount *big.Int, stake reward.Stake, opts ...Option) (*Result, error) {
	validate := func() error {
		return reward.ValidateClaim(amount, stake, s.steps.Network().IsTest())
	}
	return s.transfer(ctx, IntentClaimReward, account, amount, chain.P, chain.C, validate, opts)
}

// Execute dispatches intent to the matching flow.
func (s *Service) Execute(ctx context.Context, intent Intent, opts ...Option) (*Result, error) {
	switch intent.Kind {
	case IntentDeposit:
		return s.Deposit(ctx, intent.Account, intent.Amount, opts...)
	case IntentClaimReward:
		if intent.Stake == nil {
			return rejected(intent.Kind, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
				"reason": "claim requires the stake it was earned on",
			}))
		}
		return s.ClaimReward(ctx, intent.Account, intent.Amount, *intent.Stake, opts...)
	case IntentRecover:
		return s.Recover(ctx, intent.Account, opts...)
	default:
		return rejected(intent.Kind, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
			"intent": string(intent.Kind),
		}))
	}
}

func rejected(kind IntentKind, err error) (*Result, error) {
	return &Result{OperationID: uuid.NewString(), Intent: kind, State: StateIdle}, err
}

// transfer runs an export leg on source followed by an import leg on
// destination. The import leg is never abandoned once the export committed.
func (s *Service) transfer(ctx context.Context, intent IntentKind, account chain.Account, amount *big.Int,
	source, destination chain.ID, validate func() error, opts []Option,
) (*Result, error) {
	f := s.start(intent, account, opts)
	defer f.events.close()

	if amount == nil || amount.Sign() <= 0 {
		return s.fail(f, StateIdle, earnerr.WithDetails(earnerr.ErrInvalidAmount, map[string]string{
			"reason": "amount must be positive",
		}))
	}
	if validate != nil {
		if err := validate(); err != nil {
			return s.fail(f, StateIdle, err)
		}
	}

	release, err := s.lock(ctx, f)
	if err != nil {
		return s.fail(f, StateIdle, err)
	}
	defer release()

	if bal := f.opts.sourceBalance; bal != nil && bal.Cmp(amount) < 0 {
		return s.fail(f, StateExportFailed, earnerr.WithDetails(earnerr.ErrInsufficientBalance, map[string]string{
			"ledger":    source.String(),
			"required":  chain.FormatAVAX(amount),
			"available": chain.FormatAVAX(bal),
		}))
	}

	f.log.Info().Str("amount", chain.FormatAVAX(amount)).Msg("starting transfer")
	f.result.State = StateExporting
	f.events.emit(Event{Kind: EventExportStarted, Ledger: source})

	// The export carries the destination's import fee so amount arrives intact.
	importFee, err := s.steps.Fee(ctx, chain.KindImport, destination, f.opts.fees[destination])
	if err != nil {
		return s.fail(f, StateExportFailed, err)
	}

	exportTxID, err := s.steps.Export(ctx, step.ExportRequest{
		Account:       account,
		Source:        source,
		Destination:   destination,
		Amount:        new(big.Int).Add(amount, importFee),
		FeeSnapshot:   f.opts.fees[source],
		SourceBalance: f.opts.sourceBalance,
	})
	f.result.ExportTxID = exportTxID
	if err != nil {
		s.exportUnresolved(f, source, destination, amount, err)
		return s.fail(f, StateExportFailed, err)
	}

	f.result.State = StateExportCommitted
	f.events.emit(Event{Kind: EventExportCommitted, Ledger: source, TxID: exportTxID})

	// Cancelling now would strand the exported funds.
	importCtx := context.WithoutCancel(ctx)

	f.result.State = StateImporting
	f.events.emit(Event{Kind: EventImportStarted, Ledger: destination})

	importTxID, err := s.steps.Import(importCtx, step.ImportRequest{
		Account:     account,
		Source:      source,
		Destination: destination,
		FeeSnapshot: f.opts.fees[destination],
	})
	if importTxID != "" {
		f.result.ImportTxIDs = append(f.result.ImportTxIDs, importTxID)
	}
	if err != nil {
		f.result.State = StateImportFailed
		return s.stuck(f, source, destination, amount, importTxID, err)
	}

	f.events.emit(Event{Kind: EventImportCommitted, Ledger: destination, TxID: importTxID})
	return s.done(f)
}

// stuck records an export that committed without its import and returns the
// error that tells the caller recovery is required.
func (s *Service) stuck(f *flow, source, destination chain.ID, amount *big.Int, importTxID string, cause error) (*Result, error) {
	stuckErr := &earnerr.FundsStuckError{
		ExportTxID: f.result.ExportTxID,
		ImportTxID: importTxID,
		Cause:      cause,
	}

	s.metrics.RecordStuck()
	s.record(f, journal.Entry{
		Source:      source.String(),
		Destination: destination.String(),
		Amount:      chain.FormatAVAX(amount),
		ExportTxID:  f.result.ExportTxID,
		ImportTxID:  importTxID,
		Reason:      cause.Error(),
	})
	f.events.emit(Event{Kind: EventRecoveryNeeded, Ledger: destination, TxID: f.result.ExportTxID, Err: stuckErr})

	return s.fail(f, StateStuck, stuckErr)
}

// exportUnresolved journals an export that was accepted but never reached a
// terminal status: it may still commit and leave funds in atomic memory.
func (s *Service) exportUnresolved(f *flow, source, destination chain.ID, amount *big.Int, err error) {
	var legErr *step.LegError
	if !earnerr.As(err, &legErr) || legErr.Outcome.Kind != step.StuckUnknown {
		return
	}

	s.record(f, journal.Entry{
		Source:      source.String(),
		Destination: destination.String(),
		Amount:      chain.FormatAVAX(amount),
		ExportTxID:  legErr.TxID(),
		Reason:      "export status unknown: " + err.Error(),
	})
	f.events.emit(Event{Kind: EventRecoveryNeeded, Ledger: destination, TxID: legErr.TxID(), Err: err})
}

func (s *Service) record(f *flow, e journal.Entry) {
	if s.journal == nil {
		return
	}
	e.OperationID = f.result.OperationID
	e.Account = f.account.Key()
	e.Intent = string(f.result.Intent)

	if _, err := s.journal.Record(e); err != nil {
		f.log.Error().Err(err).Str("export_tx", e.ExportTxID).Msg("failed to journal stuck transfer")
		return
	}
	f.log.Warn().Str("export_tx", e.ExportTxID).Msg("stuck transfer journaled")
}
