package step

import (
	"context"
	"math/big"
	"time"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/retry"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// BuildImport builds the unsigned import transaction sweeping utxos into
// the destination ledger. The swept amount is the escrow total less fee.
// Inputs are sorted so the build does not depend on gateway ordering.
func BuildImport(req ImportRequest, utxos chain.UTXOSet, fee *big.Int, network chain.Network) *chain.UnsignedTx {
	amount := new(big.Int).Sub(utxos.Total(), fee)
	if amount.Sign() < 0 {
		amount.SetInt64(0)
	}
	return &chain.UnsignedTx{
		Kind:               chain.KindImport,
		Network:            network,
		SourceChain:        req.Source,
		DestinationChain:   req.Destination,
		DestinationAddress: req.Account.AddressFor(req.Destination),
		Amount:             amount,
		Fee:                new(big.Int).Set(fee),
		AccountIndex:       req.Account.Index,
		Inputs:             utxos.IDs(),
	}
}

// Import sweeps the account's escrow outputs from req.Source into
// req.Destination and returns the committed transaction id.
func (e *Executor) Import(ctx context.Context, req ImportRequest) (string, error) {
	if err := validateLedgers(req.Source, req.Destination); err != nil {
		return "", err
	}

	started := time.Now()
	log := e.log.With().
		Str("leg", "import").
		Str("source", req.Source.String()).
		Str("destination", req.Destination.String()).
		Str("account", req.Account.Key()).
		Logger()

	utxos, err := e.escrow(ctx, req)
	if err != nil {
		return "", err
	}
	if utxos.IsEmpty() {
		return "", earnerr.WithDetails(earnerr.ErrNoEscrowUTXOs, map[string]string{
			"ledger": req.Destination.String(),
			"source": req.Source.String(),
		})
	}

	fee, err := e.Fee(ctx, chain.KindImport, req.Destination, req.FeeSnapshot)
	if err != nil {
		return "", err
	}

	total := utxos.Total()
	if total.Cmp(fee) <= 0 {
		return "", insufficient(req.Destination, new(big.Int).Add(fee, big.NewInt(1)), total)
	}

	unsigned := BuildImport(req, utxos, fee, e.network)
	signed, err := e.signer.Sign(ctx, unsigned, req.Account.Index, req.Destination)
	if err != nil {
		return "", earnerr.Wrap(err, "signing import")
	}

	log.Info().
		Int("utxos", len(utxos.UTXOs)).
		Str("amount", chain.FormatAVAX(unsigned.Amount)).
		Str("fee", chain.FormatAVAX(fee)).
		Msg("issuing import")

	outcome, err := e.submitAndAwait(ctx, signed, req.Destination)
	e.recordLeg(chain.KindImport, req.Destination, outcome.Kind.String(), started)
	if err != nil {
		log.Error().Err(err).Str("tx_id", outcome.TxID).Str("outcome", outcome.Kind.String()).Msg("import did not commit")
		return outcome.TxID, &LegError{
			Kind:    chain.KindImport,
			Ledger:  req.Destination,
			Outcome: outcome,
			Err:     classify(earnerr.ErrImportFailed, err, outcome, req.Destination),
		}
	}

	log.Info().Str("tx_id", outcome.TxID).Msg("import committed")
	return outcome.TxID, nil
}

// escrow returns the request's UTXO set or queries it. An exported amount
// may take a moment to become visible, so an empty set is retried.
func (e *Executor) escrow(ctx context.Context, req ImportRequest) (chain.UTXOSet, error) {
	if req.UTXOs != nil {
		return *req.UTXOs, nil
	}

	policy := queryPolicy[chain.UTXOSet](e)
	policy.IsSuccess = func(s chain.UTXOSet) bool { return !s.IsEmpty() }

	set, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (chain.UTXOSet, error) {
		return e.gateway.EscrowUTXOs(ctx, req.Account, req.Destination)
	})
	switch {
	case err == nil:
		return set, nil
	case retry.IsExhausted(err) && set.IsEmpty():
		var exhausted *retry.ExhaustedError
		if earnerr.As(err, &exhausted) && exhausted.LastErr == nil {
			return set, nil
		}
		fallthrough
	default:
		return chain.UTXOSet{}, earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{
			"ledger": req.Destination.String(),
			"call":   "escrow_utxos",
		})
	}
}
