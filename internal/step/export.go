package step

import (
	"context"
	"math/big"
	"time"

	"github.com/mrz1836/sigil-earn/internal/chain"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// BuildExport builds the unsigned export transaction for req. It is pure:
// identical inputs always produce structurally identical transactions.
func BuildExport(req ExportRequest, fee *big.Int, network chain.Network) *chain.UnsignedTx {
	return &chain.UnsignedTx{
		Kind:               chain.KindExport,
		Network:            network,
		SourceChain:        req.Source,
		DestinationChain:   req.Destination,
		DestinationAddress: req.Account.ImportAddressFor(req.Destination),
		Amount:             new(big.Int).Set(req.Amount),
		Fee:                new(big.Int).Set(fee),
		AccountIndex:       req.Account.Index,
	}
}

// Export moves req.Amount from the source ledger into atomic memory and
// returns the committed transaction id. A failed export leaves the source
// balance untouched, so callers may safely start over. Once submitted the
// export is polled to a terminal status even if ctx is canceled.
func (e *Executor) Export(ctx context.Context, req ExportRequest) (string, error) {
	if err := validateLedgers(req.Source, req.Destination); err != nil {
		return "", err
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return "", earnerr.WithDetails(earnerr.ErrInvalidAmount, map[string]string{"reason": "export amount must be positive"})
	}

	// A caller-supplied balance that cannot cover the amount fails before
	// any ledger call.
	if req.SourceBalance != nil && req.SourceBalance.Cmp(req.Amount) < 0 {
		return "", insufficient(req.Source, req.Amount, req.SourceBalance)
	}

	started := time.Now()
	log := e.log.With().
		Str("leg", "export").
		Str("source", req.Source.String()).
		Str("destination", req.Destination.String()).
		Str("account", req.Account.Key()).
		Logger()

	fee, err := e.Fee(ctx, chain.KindExport, req.Source, req.FeeSnapshot)
	if err != nil {
		return "", err
	}

	balance := req.SourceBalance
	if balance == nil {
		balance, err = e.gateway.Balance(ctx, req.Account.AddressFor(req.Source), req.Source)
		if err != nil {
			return "", earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{
				"ledger": req.Source.String(),
				"call":   "balance",
			})
		}
	}

	required := new(big.Int).Add(req.Amount, fee)
	if balance.Cmp(required) < 0 {
		return "", insufficient(req.Source, required, balance)
	}

	unsigned := BuildExport(req, fee, e.network)
	signed, err := e.signer.Sign(ctx, unsigned, req.Account.Index, req.Source)
	if err != nil {
		return "", earnerr.Wrap(err, "signing export")
	}

	log.Info().
		Str("amount", chain.FormatAVAX(req.Amount)).
		Str("fee", chain.FormatAVAX(fee)).
		Msg("issuing export")

	outcome, err := e.submitAndAwait(ctx, signed, req.Source)
	if err != nil {
		e.recordLeg(chain.KindExport, req.Source, outcome.Kind.String(), started)
		log.Error().Err(err).Str("tx_id", outcome.TxID).Str("outcome", outcome.Kind.String()).Msg("export did not commit")
		return outcome.TxID, &LegError{
			Kind:    chain.KindExport,
			Ledger:  req.Source,
			Outcome: outcome,
			Err:     classify(earnerr.ErrExportFailed, err, outcome, req.Source),
		}
	}

	e.recordLeg(chain.KindExport, req.Source, outcome.Kind.String(), started)
	log.Info().Str("tx_id", outcome.TxID).Msg("export committed")
	return outcome.TxID, nil
}

// classify turns a submit/poll failure into the leg's error class.
func classify(class *earnerr.EarnError, err error, outcome Outcome, ledger chain.ID) error {
	details := map[string]string{
		"ledger":  ledger.String(),
		"outcome": outcome.Kind.String(),
	}
	if outcome.TxID != "" {
		details["tx_id"] = outcome.TxID
	}
	if outcome.Reason != "" {
		details["status"] = outcome.Reason
	}
	return earnerr.WithCause(class, err, details)
}

func insufficient(ledger chain.ID, required, available *big.Int) error {
	return earnerr.WithDetails(earnerr.ErrInsufficientBalance, map[string]string{
		"ledger":    ledger.String(),
		"required":  chain.FormatAVAX(required),
		"available": chain.FormatAVAX(available),
	})
}
