package earn

import (
	"math/big"
	"time"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/reward"
)

// IntentKind names what a flow is for.
type IntentKind string

// Supported intents.
const (
	IntentDeposit     IntentKind = "deposit"
	IntentClaimReward IntentKind = "claim"
	IntentRecover     IntentKind = "recover"
)

// Intent is a request for Execute.
type Intent struct {
	Kind    IntentKind
	Account chain.Account
	Amount  *big.Int // nAVAX; unused for IntentRecover

	// Stake is required for IntentClaimReward.
	Stake *reward.Stake
}

// State is the position of a flow in the transfer state machine.
type State int

// Flow states.
const (
	StateIdle State = iota
	StateExporting
	StateExportCommitted
	StateImporting
	StateDone
	StateExportFailed
	StateImportFailed
	StateStuck
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExporting:
		return "exporting"
	case StateExportCommitted:
		return "export_committed"
	case StateImporting:
		return "importing"
	case StateDone:
		return "done"
	case StateExportFailed:
		return "export_failed"
	case StateImportFailed:
		return "import_failed"
	case StateStuck:
		return "stuck"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the flow has finished.
func (s State) IsTerminal() bool {
	switch s {
	case StateDone, StateExportFailed, StateImportFailed, StateStuck:
		return true
	default:
		return false
	}
}

// Result describes a finished flow. It is returned on every path, including
// errors, so callers can switch on State.
type Result struct {
	OperationID string     `json:"operation_id"`
	Intent      IntentKind `json:"intent"`
	State       State      `json:"-"`
	ExportTxID  string     `json:"export_tx_id,omitempty"`
	ImportTxIDs []string   `json:"import_tx_ids,omitempty"`
}

// EventKind is a lifecycle event type.
type EventKind string

// Lifecycle events, in the order a successful flow emits them.
const (
	EventExportStarted   EventKind = "export_started"
	EventExportCommitted EventKind = "export_committed"
	EventImportStarted   EventKind = "import_started"
	EventImportCommitted EventKind = "import_committed"
	EventRecoveryNeeded  EventKind = "recovery_needed"
	EventRecoveryStarted EventKind = "recovery_started"
	EventDone            EventKind = "done"
	EventFailed          EventKind = "failed"
)

// Event is one lifecycle notification.
type Event struct {
	Kind        EventKind
	OperationID string
	Intent      IntentKind
	Ledger      chain.ID
	TxID        string
	Err         error
	Time        time.Time
}
