// Package errors provides structured error handling for sigil-earn.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Insufficient funds
	ExitStuck      = 6 // Funds left in transit, recovery required
)

// EarnError is the structured error type for sigil-earn.
type EarnError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *EarnError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *EarnError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for EarnError.
func (e *EarnError) Is(target error) bool {
	var t *EarnError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &EarnError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &EarnError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &EarnError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrNotFound = &EarnError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNotSupported = &EarnError{
		Code:     "NOT_SUPPORTED",
		Message:  "operation not supported for this ledger",
		ExitCode: ExitInput,
	}

	ErrCanceled = &EarnError{
		Code:     "CANCELED",
		Message:  "operation canceled before any funds moved",
		ExitCode: ExitGeneral,
	}

	// Config-specific errors.
	ErrConfigNotFound = &EarnError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &EarnError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	// Key material errors.
	ErrInvalidMnemonic = &EarnError{
		Code:       "INVALID_MNEMONIC",
		Message:    "invalid mnemonic phrase",
		Suggestion: "check the word count (12 or 24) and spelling of each word",
		ExitCode:   ExitInput,
	}

	ErrMnemonicRequired = &EarnError{
		Code:       "MNEMONIC_REQUIRED",
		Message:    "no mnemonic configured",
		Suggestion: "set SIGIL_EARN_MNEMONIC or pass --mnemonic-file",
		ExitCode:   ExitInput,
	}

	// Ledger communication errors.
	ErrNetworkError = &EarnError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrInvalidAddress = &EarnError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	// Fund-movement errors.
	ErrInsufficientBalance = &EarnError{
		Code:       "INSUFFICIENT_BALANCE",
		Message:    "insufficient balance for transfer",
		Suggestion: "Lower the amount or top up the source ledger",
		ExitCode:   ExitPermission,
	}

	ErrSubmissionFailed = &EarnError{
		Code:     "SUBMISSION_FAILED",
		Message:  "transaction submission failed",
		ExitCode: ExitGeneral,
	}

	ErrExportFailed = &EarnError{
		Code:       "EXPORT_FAILED",
		Message:    "export did not commit, no funds moved",
		Suggestion: "Retry the operation",
		ExitCode:   ExitGeneral,
	}

	ErrImportFailed = &EarnError{
		Code:     "IMPORT_FAILED",
		Message:  "import did not commit",
		ExitCode: ExitStuck,
	}

	ErrFundsStuck = &EarnError{
		Code:       "FUNDS_STUCK",
		Message:    "funds exported but not imported",
		Suggestion: "Run 'sigil-earn recover' to sweep the pending funds",
		ExitCode:   ExitStuck,
	}

	ErrNoEscrowUTXOs = &EarnError{
		Code:     "NO_ESCROW_UTXOS",
		Message:  "no pending atomic UTXOs to import",
		ExitCode: ExitNotFound,
	}

	ErrRetryExhausted = &EarnError{
		Code:     "RETRY_EXHAUSTED",
		Message:  "retry attempts exhausted",
		ExitCode: ExitGeneral,
	}

	ErrRetryStopped = &EarnError{
		Code:     "RETRY_STOPPED",
		Message:  "retry stopped on terminal result",
		ExitCode: ExitGeneral,
	}

	ErrInvalidRewardAmount = &EarnError{
		Code:     "INVALID_REWARD_AMOUNT",
		Message:  "requested reward exceeds the maximum possible reward",
		ExitCode: ExitInput,
	}
)

// FundsStuckError reports funds that left the source ledger but never
// committed on the destination ledger. It always carries the export
// transaction id so the funds can be traced and recovered.
type FundsStuckError struct {
	ExportTxID string
	ImportTxID string // Empty when the import was never accepted
	Cause      error
}

func (e *FundsStuckError) Error() string {
	msg := fmt.Sprintf("%s (export_tx: %s", ErrFundsStuck.Message, e.ExportTxID)
	if e.ImportTxID != "" {
		msg += ", import_tx: " + e.ImportTxID
	}
	msg += ")"
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *FundsStuckError) Unwrap() error {
	return e.Cause
}

// Is reports true for ErrFundsStuck so callers can match either way.
func (e *FundsStuckError) Is(target error) bool {
	var t *EarnError
	if errors.As(target, &t) {
		return t.Code == ErrFundsStuck.Code
	}
	return false
}

// New creates a new EarnError with the given code and message.
func New(code, message string) *EarnError {
	return &EarnError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *EarnError
	if errors.As(err, &se) {
		return &EarnError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &EarnError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of the sentinel carrying cause and details.
func WithCause(sentinel *EarnError, cause error, details map[string]string) error {
	return &EarnError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *EarnError
	if errors.As(err, &se) {
		return &EarnError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &EarnError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *EarnError
	if errors.As(err, &se) {
		return &EarnError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &EarnError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var stuck *FundsStuckError
	if errors.As(err, &stuck) {
		return ExitStuck
	}

	var se *EarnError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var stuck *FundsStuckError
	if errors.As(err, &stuck) {
		return ErrFundsStuck.Code
	}
	var se *EarnError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// IsStuck reports whether err means funds are in transit and need recovery.
func IsStuck(err error) bool {
	return errors.Is(err, ErrFundsStuck)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
