package earn

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/retry"
	"github.com/mrz1836/sigil-earn/internal/step"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// recoveryLedgers are swept in this order.
var recoveryLedgers = []chain.ID{chain.P, chain.C} //nolint:gochecknoglobals // fixed sweep order

// Recover sweeps every atomic output waiting for the account on either
// ledger and then clears the account's journal. With nothing waiting it is
// a successful no-op. Dust worth less than the import fee is logged and
// abandoned. A failed sweep returns ErrImportFailed (State ImportFailed),
// not a FundsStuckError, and keeps the journal entry so Recover can run again.
func (s *Service) Recover(ctx context.Context, account chain.Account, opts ...Option) (*Result, error) {
	f := s.start(IntentRecover, account, opts)
	defer f.events.close()

	release, err := s.lock(ctx, f)
	if err != nil {
		return s.fail(f, StateIdle, err)
	}
	defer release()

	f.events.emit(Event{Kind: EventRecoveryStarted})
	f.log.Info().Msg("checking atomic memory")

	sets, err := s.escrowSets(ctx, account)
	if err != nil {
		return s.fail(f, StateImportFailed, err)
	}

	f.result.State = StateImporting
	for _, set := range sets {
		if set.IsEmpty() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return s.fail(f, StateImportFailed, earnerr.WithCause(earnerr.ErrCanceled, err, nil))
		}

		f.events.emit(Event{Kind: EventImportStarted, Ledger: set.Ledger})
		f.log.Info().
			Str("ledger", set.Ledger.String()).
			Int("utxos", len(set.UTXOs)).
			Str("total", chain.FormatAVAX(set.Total())).
			Msg("sweeping atomic outputs")

		txID, err := s.steps.Import(ctx, step.ImportRequest{
			Account:     account,
			Source:      set.SourceChain,
			Destination: set.Ledger,
			FeeSnapshot: f.opts.fees[set.Ledger],
			UTXOs:       &set,
		})
		if txID != "" {
			f.result.ImportTxIDs = append(f.result.ImportTxIDs, txID)
		}
		if earnerr.Is(err, earnerr.ErrInsufficientBalance) {
			// Outputs worth less than the import fee can never be swept.
			f.log.Warn().Err(err).
				Str("ledger", set.Ledger.String()).
				Str("abandoned", chain.FormatAVAX(set.Total())).
				Msg("abandoning dust below the import fee")
			continue
		}
		if err != nil {
			return s.fail(f, StateImportFailed, err)
		}
		f.events.emit(Event{Kind: EventImportCommitted, Ledger: set.Ledger, TxID: txID})
	}

	if s.journal != nil {
		if n, err := s.journal.Clear(account.Key()); err != nil {
			f.log.Error().Err(err).Msg("failed to clear journal")
		} else if n > 0 {
			f.log.Info().Int("entries", n).Msg("journal cleared")
		}
	}

	return s.done(f)
}

// escrowSets queries both ledgers' atomic memory concurrently.
func (s *Service) escrowSets(ctx context.Context, account chain.Account) ([]chain.UTXOSet, error) {
	sets := make([]chain.UTXOSet, len(recoveryLedgers))

	g, gctx := errgroup.WithContext(ctx)
	for i, ledger := range recoveryLedgers {
		g.Go(func() error {
			set, err := retry.Do(gctx, retry.Policy[chain.UTXOSet]{
				MaxAttempts: s.queryAttempts,
				Backoff:     s.queryBackoff,
			}, func(ctx context.Context, _ int) (chain.UTXOSet, error) {
				return s.gateway.EscrowUTXOs(ctx, account, ledger)
			})
			if err != nil {
				return earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{
					"ledger": ledger.String(),
					"call":   "escrow_utxos",
				})
			}
			set.Ledger = ledger
			if set.SourceChain == "" {
				set.SourceChain = ledger.Counterpart()
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}
