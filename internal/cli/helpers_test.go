package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/chain/chaintest"
	"github.com/mrz1836/sigil-earn/internal/config"
	"github.com/mrz1836/sigil-earn/internal/journal"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// cliEnv is an isolated home directory with a fast-polling fuji config.
type cliEnv struct {
	home string
	gw   *chaintest.Gateway
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()

	t.Setenv("HOME", home)
	for _, key := range []string{
		config.EnvNetwork, config.EnvRPC, config.EnvOutputFormat,
		config.EnvStatusInterval, config.EnvPassphrase, config.EnvVerbose,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvMnemonic, testMnemonic)

	env := &cliEnv{home: home, gw: chaintest.NewGateway()}
	env.gw.Balances[chain.C] = avax(100)
	env.gw.Balances[chain.P] = avax(100)
	env.gw.SubmitFunc = atomicMemory(env.gw, true)

	orig := dialGateway
	dialGateway = func(context.Context, *config.Config, chain.Network) (chain.Gateway, func(), error) {
		return env.gw, func() {}, nil
	}
	t.Cleanup(func() { dialGateway = orig })

	return env
}

// writeConfig saves a fuji config that polls every millisecond.
func (e *cliEnv) writeConfig(t *testing.T) {
	t.Helper()
	c := config.Defaults()
	c.Home = e.home
	c.Network = "fuji"
	c.RPC.RateLimit = 1000
	c.RPC.Burst = 1000
	c.Retry.SubmitInterval = time.Millisecond
	c.Retry.StatusInterval = time.Millisecond
	c.Logging.Level = "off"
	c.Logging.File = ""
	require.NoError(t, config.Save(c, config.Path(e.home)))
}

func (e *cliEnv) journal() *journal.FileStore {
	return journal.NewFileStore(filepath.Join(e.home, journal.FileName))
}

// atomicMemory makes exports fill the destination's atomic memory and
// imports drain it. With commitImports false imports never clear it.
func atomicMemory(gw *chaintest.Gateway, commitImports bool) func(*chain.SignedTx, chain.ID, int) (string, error) {
	return func(tx *chain.SignedTx, ledger chain.ID, _ int) (string, error) {
		id := fmt.Sprintf("%s-%s-%s", tx.Unsigned.Kind, ledger, tx.DigestHex()[:8])
		switch tx.Unsigned.Kind {
		case chain.KindExport:
			gw.SetEscrow(tx.Unsigned.DestinationChain, chain.UTXO{ID: "utxo-" + id, TxID: id, Amount: tx.Unsigned.Amount.Uint64()})
		case chain.KindImport:
			if commitImports {
				gw.SetEscrow(tx.Unsigned.DestinationChain)
			}
		}
		return id, nil
	}
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute()
	return stdout.String(), stderr.String(), err
}

func journalEntry(account string) journal.Entry {
	return journal.Entry{
		Account:     account,
		Intent:      "deposit",
		Source:      "C",
		Destination: "P",
		Amount:      "2.0",
		ExportTxID:  "old-export",
		Reason:      "import status unknown",
	}
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func avax(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}
