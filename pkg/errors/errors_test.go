package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

var (
	errInner     = errors.New("inner")
	errRootCause = errors.New("root cause")
	errPlain     = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, earnerr.ExitSuccess},
		{"general error", earnerr.ErrGeneral, earnerr.ExitGeneral},
		{"input error", earnerr.ErrInvalidInput, earnerr.ExitInput},
		{"not found error", earnerr.ErrNotFound, earnerr.ExitNotFound},
		{"insufficient balance", earnerr.ErrInsufficientBalance, earnerr.ExitPermission},
		{"invalid reward", earnerr.ErrInvalidRewardAmount, earnerr.ExitInput},
		{"funds stuck sentinel", earnerr.ErrFundsStuck, earnerr.ExitStuck},
		{"funds stuck typed", &earnerr.FundsStuckError{ExportTxID: "A"}, earnerr.ExitStuck},
		{"plain error", errPlain, earnerr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, earnerr.ExitCode(tt.err))
		})
	}
}

func TestExitCodeWrappedError(t *testing.T) {
	t.Parallel()
	wrapped := earnerr.Wrap(earnerr.ErrNotFound, "account %d", 0)
	assert.Equal(t, earnerr.ExitNotFound, earnerr.ExitCode(wrapped))

	stuck := fmt.Errorf("deposit: %w", &earnerr.FundsStuckError{ExportTxID: "A"})
	assert.Equal(t, earnerr.ExitStuck, earnerr.ExitCode(stuck))
}

func TestSentinelErrors(t *testing.T) {
	t.Parallel()
	sentinels := []*earnerr.EarnError{
		earnerr.ErrGeneral,
		earnerr.ErrInvalidInput,
		earnerr.ErrInsufficientBalance,
		earnerr.ErrSubmissionFailed,
		earnerr.ErrExportFailed,
		earnerr.ErrImportFailed,
		earnerr.ErrRetryExhausted,
		earnerr.ErrRetryStopped,
		earnerr.ErrInvalidRewardAmount,
	}
	for _, s := range sentinels {
		wrapped := earnerr.Wrap(s, "wrapped")
		require.ErrorIs(t, wrapped, s, s.Code)
	}
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      error
		expected string
	}{
		{earnerr.ErrGeneral, "GENERAL_ERROR"},
		{earnerr.ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
		{earnerr.ErrSubmissionFailed, "SUBMISSION_FAILED"},
		{earnerr.ErrRetryExhausted, "RETRY_EXHAUSTED"},
		{earnerr.ErrInvalidRewardAmount, "INVALID_REWARD_AMOUNT"},
		{&earnerr.FundsStuckError{ExportTxID: "A"}, "FUNDS_STUCK"},
		{errPlain, "GENERAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, earnerr.Code(tt.err))
		})
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()
	details := map[string]string{
		"required":  "10",
		"available": "5",
		"ledger":    "C",
	}

	err := earnerr.WithDetails(earnerr.ErrInsufficientBalance, details)

	var se *earnerr.EarnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, details, se.Details)
	assert.Equal(t, "insufficient balance for transfer (available: 5) (ledger: C) (required: 10)", err.Error())
}

func TestWithDetails_PlainError(t *testing.T) {
	t.Parallel()
	err := earnerr.WithDetails(errPlain, map[string]string{"k": "v"})

	var se *earnerr.EarnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "GENERAL_ERROR", se.Code)
	require.ErrorIs(t, err, errPlain)
}

func TestWithSuggestion(t *testing.T) {
	t.Parallel()
	suggestion := "Run 'sigil-earn recover'"
	err := earnerr.WithSuggestion(earnerr.ErrImportFailed, suggestion)

	var se *earnerr.EarnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, suggestion, se.Suggestion)
}

func TestWithCause(t *testing.T) {
	t.Parallel()
	err := earnerr.WithCause(earnerr.ErrExportFailed, errRootCause, map[string]string{"tx_id": "A"})

	require.ErrorIs(t, err, earnerr.ErrExportFailed)
	require.ErrorIs(t, err, errRootCause)
	assert.Contains(t, err.Error(), "tx_id: A")
	assert.Equal(t, earnerr.ErrExportFailed.Suggestion, err.(*earnerr.EarnError).Suggestion) //nolint:errorlint // direct construction
}

func TestWrap(t *testing.T) {
	t.Parallel()
	wrapped := earnerr.Wrap(earnerr.ErrNotFound, "account %s", "main")
	assert.Contains(t, wrapped.Error(), "account main")
	require.ErrorIs(t, wrapped, earnerr.ErrNotFound)

	assert.NoError(t, earnerr.Wrap(nil, "nothing"))

	plain := earnerr.Wrap(errInner, "outer")
	require.ErrorIs(t, plain, errInner)
	assert.Equal(t, "GENERAL_ERROR", earnerr.Code(plain))
}

func TestNew(t *testing.T) {
	t.Parallel()
	err := earnerr.New("CUSTOM_ERROR", "custom error message")
	assert.Equal(t, "custom error message", err.Error())
	assert.Equal(t, earnerr.ExitGeneral, err.ExitCode)
}

func TestFundsStuckError(t *testing.T) {
	t.Parallel()

	t.Run("message carries tx ids", func(t *testing.T) {
		t.Parallel()
		err := &earnerr.FundsStuckError{ExportTxID: "A", ImportTxID: "B", Cause: errRootCause}
		assert.Equal(t, "funds exported but not imported (export_tx: A, import_tx: B): root cause", err.Error())
	})

	t.Run("no import id", func(t *testing.T) {
		t.Parallel()
		err := &earnerr.FundsStuckError{ExportTxID: "A"}
		assert.Equal(t, "funds exported but not imported (export_tx: A)", err.Error())
	})

	t.Run("matches sentinel and unwraps cause", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("claim: %w", &earnerr.FundsStuckError{ExportTxID: "A", Cause: earnerr.ErrRetryExhausted})
		require.ErrorIs(t, err, earnerr.ErrFundsStuck)
		require.ErrorIs(t, err, earnerr.ErrRetryExhausted)
		assert.True(t, earnerr.IsStuck(err))

		var stuck *earnerr.FundsStuckError
		require.ErrorAs(t, err, &stuck)
		assert.Equal(t, "A", stuck.ExportTxID)
	})

	t.Run("other errors are not stuck", func(t *testing.T) {
		t.Parallel()
		assert.False(t, earnerr.IsStuck(earnerr.ErrExportFailed))
		assert.False(t, earnerr.IsStuck(errPlain))
	})
}
