package earn

import (
	"context"
	"math/big"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/journal"
	"github.com/mrz1836/sigil-earn/internal/step"
)

// Steps runs the individual transfer legs.
// Satisfied by *step.Executor.
type Steps interface {
	Export(ctx context.Context, req step.ExportRequest) (string, error)
	Import(ctx context.Context, req step.ImportRequest) (string, error)
	Fee(ctx context.Context, kind chain.TxKind, ledger chain.ID, snapshot *chain.Fee) (*big.Int, error)
	Network() chain.Network
}

// Journal persists stuck transfers.
// Satisfied by *journal.FileStore.
type Journal interface {
	Record(e journal.Entry) (journal.Entry, error)
	Clear(account string) (int, error)
}

// Observer receives lifecycle events. It runs off the orchestration path
// and should return quickly.
type Observer func(Event)
