package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/chain/chaintest"
	"github.com/mrz1836/sigil-earn/internal/config"
	"github.com/mrz1836/sigil-earn/internal/output"
	"github.com/mrz1836/sigil-earn/internal/reward"
	versionpkg "github.com/mrz1836/sigil-earn/internal/version"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

func TestDeposit_JSON(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	stdout, _, err := runCLI(t, "deposit", "1", "-o", "json")
	require.NoError(t, err)

	out := decodeJSON[TransferOutput](t, stdout)
	assert.Equal(t, "deposit", out.Intent)
	assert.Equal(t, "done", out.State)
	assert.Equal(t, "fuji", out.Network)
	assert.Equal(t, "main/0", out.Account)
	assert.Equal(t, "1.0", out.Amount)
	assert.True(t, strings.HasPrefix(out.ExportTxID, "export-C-"), out.ExportTxID)
	require.Len(t, out.ImportTxIDs, 1)
	assert.True(t, strings.HasPrefix(out.ImportTxIDs[0], "import-P-"), out.ImportTxIDs[0])
	assert.Equal(t, 2, env.gw.Count(chaintest.MethodSubmit))
}

func TestDeposit_TextProgress(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	stdout, stderr, err := runCLI(t, "deposit", "2.5", "-o", "text")
	require.NoError(t, err)

	assert.Contains(t, stdout, "State:      done")
	assert.Contains(t, stdout, "Amount:     2.5 AVAX")
	assert.Contains(t, stderr, "export committed")
	assert.Contains(t, stderr, "import committed")
}

func TestDeposit_InvalidAmount(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	_, stderr, err := runCLI(t, "deposit", "lots", "-o", "json")
	require.Error(t, err)
	assert.Equal(t, earnerr.ExitInput, ExitCode(err))
	assert.Zero(t, env.gw.Count(chaintest.MethodSubmit))

	got := decodeJSON[output.ErrorOutput](t, stderr)
	assert.Equal(t, earnerr.ErrInvalidAmount.Code, got.Error.Code)
}

func TestDeposit_MnemonicRequired(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)
	t.Setenv(config.EnvMnemonic, "")

	_, _, err := runCLI(t, "deposit", "1")
	require.ErrorIs(t, err, earnerr.ErrMnemonicRequired)
	assert.Empty(t, env.gw.Calls())
}

func TestDeposit_MnemonicFile(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)
	t.Setenv(config.EnvMnemonic, "")

	path := env.home + "/seed.txt"
	require.NoError(t, os.WriteFile(path, []byte(testMnemonic+"\n"), 0o600))

	stdout, _, err := runCLI(t, "deposit", "1", "--mnemonic-file", path, "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "done", decodeJSON[TransferOutput](t, stdout).State)
}

func TestDeposit_InsufficientBalance(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)
	env.gw.Balances[chain.C] = avax(1)

	_, _, err := runCLI(t, "deposit", "50", "-o", "json")
	require.ErrorIs(t, err, earnerr.ErrInsufficientBalance)
	assert.Equal(t, earnerr.ExitPermission, ExitCode(err))
}

func TestDeposit_StuckThenRecover(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)
	env.gw.SubmitFunc = atomicMemory(env.gw, false)
	env.gw.StatusFunc = func(txID string, _ chain.ID, _ int) (chain.TxStatus, error) {
		if strings.HasPrefix(txID, "import-") {
			return chain.StatusPending, nil
		}
		return chain.StatusCommitted, nil
	}

	_, stderr, err := runCLI(t, "deposit", "3", "-o", "json")
	require.Error(t, err)
	assert.True(t, earnerr.IsStuck(err))
	assert.Equal(t, earnerr.ExitStuck, ExitCode(err))

	printed := decodeJSON[output.ErrorOutput](t, stderr)
	assert.Equal(t, earnerr.ErrFundsStuck.Code, printed.Error.Code)
	assert.NotEmpty(t, printed.Error.Details["export_tx"])

	pending, err := env.journal().Pending("main/0")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "deposit", pending[0].Intent)

	stdout, _, err := runCLI(t, "status", "--offline", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeJSON[StatusOutput](t, stdout).Pending, 1)

	env.gw.SubmitFunc = atomicMemory(env.gw, true)
	env.gw.StatusFunc = nil

	stdout, _, err = runCLI(t, "recover", "-o", "json")
	require.NoError(t, err)
	out := decodeJSON[TransferOutput](t, stdout)
	assert.Equal(t, "recover", out.Intent)
	assert.Equal(t, "done", out.State)
	assert.Len(t, out.ImportTxIDs, 1)

	pending, err = env.journal().Pending("main/0")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeposit_RecoversPendingFirst(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	_, err := env.journal().Record(journalEntry("main/0"))
	require.NoError(t, err)
	env.gw.SetEscrow(chain.P, chain.UTXO{ID: "left-over", TxID: "old-export", Amount: avax(2).Uint64()})

	_, _, err = runCLI(t, "deposit", "1", "-o", "json")
	require.NoError(t, err)

	// One sweep import, then the deposit's export and import.
	assert.Equal(t, 3, env.gw.Count(chaintest.MethodSubmit))
	pending, err := env.journal().Pending("main/0")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeposit_SkipRecovery(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	_, err := env.journal().Record(journalEntry("main/0"))
	require.NoError(t, err)

	_, _, err = runCLI(t, "deposit", "1", "--skip-recovery", "-o", "json")
	require.NoError(t, err)

	assert.Equal(t, 2, env.gw.Count(chaintest.MethodSubmit))
	pending, err := env.journal().Pending("main/0")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRecover_NothingWaiting(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	stdout, _, err := runCLI(t, "recover", "-o", "json")
	require.NoError(t, err)

	out := decodeJSON[TransferOutput](t, stdout)
	assert.Equal(t, "done", out.State)
	assert.Empty(t, out.ImportTxIDs)
	assert.Zero(t, env.gw.Count(chaintest.MethodSubmit))
}

func TestClaim_Success(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	stdout, _, err := runCLI(t, "claim", "1",
		"--stake", "2000", "--duration", "365d", "--supply", "450000000", "-o", "json")
	require.NoError(t, err)

	out := decodeJSON[TransferOutput](t, stdout)
	assert.Equal(t, "claim", out.Intent)
	assert.Equal(t, "done", out.State)
	assert.True(t, strings.HasPrefix(out.ExportTxID, "export-P-"), out.ExportTxID)
	require.Len(t, out.ImportTxIDs, 1)
	assert.True(t, strings.HasPrefix(out.ImportTxIDs[0], "import-C-"), out.ImportTxIDs[0])
}

func TestClaim_ExceedsMaximumReward(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	_, stderr, err := runCLI(t, "claim", "1000",
		"--stake", "25", "--duration", "14d", "--supply", "450000000", "-o", "json")
	require.ErrorIs(t, err, earnerr.ErrInvalidRewardAmount)
	assert.Empty(t, env.gw.Calls())

	printed := decodeJSON[output.ErrorOutput](t, stderr)
	assert.NotEmpty(t, printed.Error.Details["maximum"])
}

func TestClaim_BadStakeFlags(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad duration", []string{"--stake", "25", "--duration", "soon", "--supply", "450000000"}},
		{"negative fee", []string{"--stake", "25", "--duration", "14d", "--supply", "450000000", "--delegation-fee", "-1"}},
		{"fee over 100", []string{"--stake", "25", "--duration", "14d", "--supply", "450000000", "--delegation-fee", "101"}},
		{"bad stake", []string{"--stake", "x", "--duration", "14d", "--supply", "450000000"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"claim", "0.1", "-o", "json"}, tc.args...)
			_, _, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Equal(t, earnerr.ExitInput, ExitCode(err))
		})
	}
	assert.Empty(t, env.gw.Calls())
}

func TestReward(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	stdout, _, err := runCLI(t, "reward",
		"--stake", "2000", "--duration", "365d", "--supply", "450000000", "--delegation-fee", "2", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, env.gw.Calls())

	stake, err := stakeFlags{amount: "2000", duration: "365d", supply: "450000000", delegationFee: "2"}.parse()
	require.NoError(t, err)
	want := reward.Calc(stake.Amount, stake.Duration, stake.CurrentSupply, stake.DelegationFeePercent, true)

	out := decodeJSON[RewardOutput](t, stdout)
	assert.Equal(t, "fuji", out.Network)
	assert.Equal(t, want.String(), out.MaxRewardNano)
	assert.Equal(t, chain.FormatAVAX(want), out.MaxReward)
	assert.Positive(t, want.Sign())
}

func TestStatus_Online(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)
	env.gw.SetEscrow(chain.P, chain.UTXO{ID: "u1", TxID: "t1", Amount: avax(4).Uint64()})

	stdout, _, err := runCLI(t, "status", "-o", "json")
	require.NoError(t, err)

	out := decodeJSON[StatusOutput](t, stdout)
	assert.Equal(t, "main/0", out.Account)
	require.Len(t, out.Ledgers, 2)
	assert.Equal(t, "C", out.Ledgers[0].Ledger)
	assert.Equal(t, "100.0", out.Ledgers[0].Balance)
	assert.Equal(t, "P", out.Ledgers[1].Ledger)
	assert.Equal(t, "4.0", out.Ledgers[1].Escrow)
	assert.Equal(t, 1, out.Ledgers[1].EscrowUTXOs)
	assert.True(t, strings.HasPrefix(out.Ledgers[1].Address, "P-fuji1"), out.Ledgers[1].Address)
}

func TestStatus_Text(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t)

	_, err := env.journal().Record(journalEntry("main/0"))
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "status", "--offline", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "EXPORT TX")
	assert.Contains(t, stdout, "old-export")
	assert.Contains(t, stdout, "sigil-earn recover")
}

func TestNetworkTypo(t *testing.T) {
	newCLIEnv(t)

	_, stderr, err := runCLI(t, "status", "--offline", "--network", "fujj", "-o", "text")
	require.ErrorIs(t, err, earnerr.ErrConfigInvalid)
	assert.Contains(t, stderr, `did you mean "fuji"?`)
}

func TestVersion(t *testing.T) {
	newCLIEnv(t)

	stdout, _, err := runCLI(t, "version", "-o", "json")
	require.NoError(t, err)
	info := decodeJSON[versionpkg.Info](t, stdout)
	assert.Equal(t, versionpkg.Version, info.Version)
	assert.False(t, info.Outdated)
}

func TestVersion_Check(t *testing.T) {
	newCLIEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v9.9.9"}`))
	}))
	t.Cleanup(srv.Close)

	orig := newVersionClient
	newVersionClient = func() *versionpkg.Client {
		return &versionpkg.Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	}
	t.Cleanup(func() { newVersionClient = orig })

	stdout, _, err := runCLI(t, "version", "--check", "-o", "json")
	require.NoError(t, err)
	info := decodeJSON[versionpkg.Info](t, stdout)
	assert.Equal(t, "v9.9.9", info.Latest)
	assert.True(t, info.Outdated)
}

func TestConfigInitAndShow(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := runCLI(t, "config", "init", "--network", "fuji", "-o", "json")
	require.NoError(t, err)

	saved, err := config.Load(config.Path(env.home))
	require.NoError(t, err)
	assert.Equal(t, "fuji", saved.Network)

	_, _, err = runCLI(t, "config", "init", "-o", "json")
	require.ErrorIs(t, err, earnerr.ErrInvalidInput)

	_, _, err = runCLI(t, "config", "init", "--force", "-o", "json")
	require.NoError(t, err)

	t.Setenv(config.EnvPassphrase, "hunter2")
	stdout, _, err := runCLI(t, "config", "show", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rpc_url: "+config.DefaultFujiRPCURL)
	assert.NotContains(t, stdout, "abandon")
	assert.NotContains(t, stdout, "hunter2")
}

func TestParseStakeDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "14d", want: "336h0m0s"},
		{in: "336h", want: "336h0m0s"},
		{in: " 1d ", want: "24h0m0s"},
		{in: "90m", want: "1h30m0s"},
		{in: "0d", wantErr: true},
		{in: "-3h", wantErr: true},
		{in: "d", wantErr: true},
		{in: "1.5d", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseStakeDuration(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, earnerr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestCommandGroups(t *testing.T) {
	groups := map[string]bool{}
	for _, g := range rootCmd.Groups() {
		groups[g.ID] = true
	}
	for _, name := range []string{"deposit", "claim", "recover", "reward", "status"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, groupEarn, cmd.GroupID, name)
	}
	for _, cmd := range rootCmd.Commands() {
		if cmd.GroupID != "" {
			assert.True(t, groups[cmd.GroupID], cmd.Name())
		}
	}
}
