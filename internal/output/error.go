package output

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// Describe flattens err into an ErrorDetail. Stuck funds always carry
// their transaction ids.
func Describe(err error) ErrorDetail {
	var stuck *earnerr.FundsStuckError
	if errors.As(err, &stuck) {
		details := map[string]string{"export_tx": stuck.ExportTxID}
		if stuck.ImportTxID != "" {
			details["import_tx"] = stuck.ImportTxID
		}
		d := ErrorDetail{
			Code:       earnerr.ErrFundsStuck.Code,
			Message:    earnerr.ErrFundsStuck.Message,
			Details:    details,
			Suggestion: earnerr.ErrFundsStuck.Suggestion,
			ExitCode:   earnerr.ExitStuck,
		}
		if stuck.Cause != nil {
			d.Cause = stuck.Cause.Error()
		}
		return d
	}

	var ee *earnerr.EarnError
	if errors.As(err, &ee) {
		d := ErrorDetail{
			Code:       ee.Code,
			Message:    ee.Message,
			Details:    ee.Details,
			Suggestion: ee.Suggestion,
			ExitCode:   ee.ExitCode,
		}
		if ee.Cause != nil {
			d.Cause = ee.Cause.Error()
		}
		return d
	}

	return ErrorDetail{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		ExitCode: earnerr.ExitGeneral,
	}
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	d := Describe(err)
	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: d})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", d.Message)
	if d.Cause != "" {
		fmt.Fprintf(&sb, "Cause: %s\n", d.Cause)
	}
	if len(d.Details) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, k := range slices.Sorted(maps.Keys(d.Details)) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", d.Suggestion)
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
