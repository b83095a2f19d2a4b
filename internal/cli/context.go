package cli

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/config"
	"github.com/mrz1836/sigil-earn/internal/earn"
	"github.com/mrz1836/sigil-earn/internal/journal"
	"github.com/mrz1836/sigil-earn/internal/ledger"
	"github.com/mrz1836/sigil-earn/internal/signer"
	"github.com/mrz1836/sigil-earn/internal/step"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// dialGateway connects to the configured node. Tests replace it.
//
//nolint:gochecknoglobals // test seam
var dialGateway = func(ctx context.Context, c *config.Config, network chain.Network) (chain.Gateway, func(), error) {
	gw, err := ledger.Dial(ctx, c.RPCURL(), &ledger.Options{
		HTTPClient: &http.Client{Timeout: c.RPC.Timeout},
	})
	if err != nil {
		return nil, nil, earnerr.WithCause(earnerr.ErrNetworkError, err, map[string]string{"rpc": c.RPCURL()})
	}
	checkCtx, cancel := context.WithTimeout(ctx, c.RPC.Timeout)
	defer cancel()
	if err := gw.CheckNetwork(checkCtx, network); err != nil {
		gw.Close()
		return nil, nil, err
	}
	return gw, gw.Close, nil
}

// runtime holds everything a transfer command needs.
type runtime struct {
	network chain.Network
	account chain.Account
	gateway chain.Gateway
	journal *journal.FileStore
	service *earn.Service

	signer      *signer.Mnemonic
	closeRemote func()
}

// newRuntime builds the signer, gateway, step executor, journal and service
// from the active configuration.
func newRuntime(ctx context.Context) (*runtime, error) {
	network, err := cfg.ChainNetwork()
	if err != nil {
		return nil, err
	}
	if _, err = ledger.ValidateURL(cfg.RPCURL()); err != nil {
		return nil, err
	}

	phrase, err := loadMnemonic()
	if err != nil {
		return nil, err
	}
	sgn, err := signer.NewMnemonic(phrase, cfg.Wallet.Passphrase, network)
	if err != nil {
		return nil, err
	}

	rt := &runtime{network: network, signer: sgn}
	if rt.account, err = sgn.Account(cfg.Wallet.ID, cfg.Wallet.AccountIndex); err != nil {
		rt.Close()
		return nil, err
	}

	remote, closeRemote, err := dialGateway(ctx, cfg, network)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closeRemote = closeRemote

	log := logger.With().
		Str("network", network.String()).
		Str("account", rt.account.Key()).
		Logger()

	rt.gateway = ledger.NewInstrumented(remote, chain.NewRateLimiter(cfg.RPC.RateLimit, cfg.RPC.Burst), mets, log)

	executor := step.NewExecutor(&step.Config{
		Gateway:           rt.gateway,
		Signer:            sgn,
		Network:           network,
		Logger:            log,
		Metrics:           mets,
		SubmitAttempts:    cfg.Retry.SubmitAttempts,
		SubmitInterval:    cfg.Retry.SubmitInterval,
		StatusAttempts:    cfg.Retry.StatusAttempts,
		StatusInterval:    cfg.StatusInterval(),
		BaseFeeMultiplier: cfg.Retry.BaseFeeMultiplier,
	})

	rt.journal = journal.NewFileStore(filepath.Join(cfg.JournalDir(), journal.FileName))
	rt.service = earn.NewService(&earn.Config{
		Steps:         executor,
		Gateway:       rt.gateway,
		Journal:       rt.journal,
		Logger:        log,
		Metrics:       mets,
		QueryInterval: cfg.Retry.SubmitInterval,
	})
	return rt, nil
}

// Close releases the node connection and wipes derived keys.
func (r *runtime) Close() {
	if r.closeRemote != nil {
		r.closeRemote()
		r.closeRemote = nil
	}
	if r.signer != nil {
		r.signer.Close()
	}
}

// loadMnemonic reads the phrase from the environment or the mnemonic file.
func loadMnemonic() (string, error) {
	if cfg.Wallet.Mnemonic != "" {
		return cfg.Wallet.Mnemonic, nil
	}
	path := cfg.Wallet.MnemonicFile
	if path == "" {
		return "", earnerr.ErrMnemonicRequired
	}
	path = config.ExpandHome(path)
	// #nosec G304 -- mnemonic path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", earnerr.WithDetails(earnerr.ErrMnemonicRequired, map[string]string{"mnemonic_file": path})
		}
		return "", earnerr.WithCause(earnerr.ErrGeneral, err, map[string]string{"mnemonic_file": path})
	}
	return strings.TrimSpace(string(data)), nil
}
