package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// commandTimeout bounds a read-only lookup such as a status query or the
// release check. It derives from the interrupt-aware command context, so
// Ctrl-C ends the lookup early; a non-positive d leaves it unbounded.
func commandTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, d)
}
