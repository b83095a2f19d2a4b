// Package ledger adapts Avalanche-style JSON-RPC nodes to chain.Gateway.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mrz1836/sigil-earn/internal/chain"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Endpoint paths relative to the node base URL.
const (
	PathCChainEth  = "/ext/bc/C/rpc"
	PathCChainAvax = "/ext/bc/C/avax"
	PathPChain     = "/ext/bc/P"
	PathInfo       = "/ext/info"
)

const (
	encodingHex = "hex"

	// utxoPageLimit is the page size requested from getUTXOs.
	utxoPageLimit = 1024

	// maxUTXOPages bounds pagination against a misbehaving node.
	maxUTXOPages = 64

	defaultTimeout = 30 * time.Second
)

// Options configures the RPC gateway.
type Options struct {
	// HTTPClient overrides the client used for every endpoint.
	HTTPClient *http.Client
}

// Compile-time interface check
var _ chain.Gateway = (*RPCGateway)(nil)

// RPCGateway talks to one node: eth_* and avax.* on the C-Chain, platform.*
// on the P-Chain and info.* for fees and network identity.
type RPCGateway struct {
	eth    *ethclient.Client
	cAvax  *rpc.Client
	pChain *rpc.Client
	info   *rpc.Client
}

// Dial connects to the node at baseURL, e.g. https://api.avax-test.network.
func Dial(ctx context.Context, baseURL string, opts *Options) (*RPCGateway, error) {
	base, err := ValidateURL(baseURL)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: defaultTimeout}
	if opts != nil && opts.HTTPClient != nil {
		hc = opts.HTTPClient
	}

	dial := func(path string) (*rpc.Client, error) {
		c, err := rpc.DialOptions(ctx, base+path, rpc.WithHTTPClient(hc))
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", path, err)
		}
		return c, nil
	}

	g := &RPCGateway{}
	ethRPC, err := dial(PathCChainEth)
	if err != nil {
		return nil, err
	}
	g.eth = ethclient.NewClient(ethRPC)
	if g.cAvax, err = dial(PathCChainAvax); err != nil {
		g.Close()
		return nil, err
	}
	if g.pChain, err = dial(PathPChain); err != nil {
		g.Close()
		return nil, err
	}
	if g.info, err = dial(PathInfo); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// ValidateURL checks that raw is an absolute http(s) URL and returns it
// without a trailing slash.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", earnerr.WithSuggestion(
			earnerr.WithDetails(earnerr.ErrConfigInvalid, map[string]string{"rpc": raw}),
			"Set rpc to a node base URL such as https://api.avax.network",
		)
	}
	return strings.TrimRight(raw, "/"), nil
}

// Close releases every endpoint connection.
func (g *RPCGateway) Close() {
	if g.eth != nil {
		g.eth.Close()
	}
	for _, c := range []*rpc.Client{g.cAvax, g.pChain, g.info} {
		if c != nil {
			c.Close()
		}
	}
}

// NetworkID returns the numeric network id reported by the node.
func (g *RPCGateway) NetworkID(ctx context.Context) (uint32, error) {
	var res struct {
		NetworkID string `json:"networkID"`
	}
	if err := g.info.CallContext(ctx, &res, "info.getNetworkID"); err != nil {
		return 0, fmt.Errorf("info.getNetworkID: %w", err)
	}
	id, err := strconv.ParseUint(res.NetworkID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing network id %q: %w", res.NetworkID, err)
	}
	return uint32(id), nil
}

// CheckNetwork fails when the node serves a different network than want.
func (g *RPCGateway) CheckNetwork(ctx context.Context, want chain.Network) error {
	got, err := g.NetworkID(ctx)
	if err != nil {
		return err
	}
	if got != want.NetworkID() {
		return earnerr.WithDetails(earnerr.ErrConfigInvalid, map[string]string{
			"network":         want.String(),
			"node_network_id": strconv.FormatUint(uint64(got), 10),
		})
	}
	return nil
}

// Balance implements chain.Gateway. Account-ledger balances are converted
// from wei to nAVAX.
func (g *RPCGateway) Balance(ctx context.Context, address string, ledger chain.ID) (*big.Int, error) {
	switch ledger {
	case chain.C:
		if !common.IsHexAddress(address) {
			return nil, earnerr.WithDetails(earnerr.ErrInvalidAddress, map[string]string{"address": address})
		}
		wei, err := g.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
		if err != nil {
			return nil, fmt.Errorf("eth_getBalance: %w", err)
		}
		return chain.WeiToNAVAX(wei), nil

	case chain.P:
		var res struct {
			Balance  string `json:"balance"`
			Unlocked string `json:"unlocked"`
		}
		if err := g.pChain.CallContext(ctx, &res, "platform.getBalance", map[string]any{
			"addresses": []string{address},
		}); err != nil {
			return nil, fmt.Errorf("platform.getBalance: %w", err)
		}
		amount := res.Unlocked
		if amount == "" {
			amount = res.Balance
		}
		return parseUint(amount, "balance")

	default:
		return nil, unsupported(ledger)
	}
}

// FeeBaseline implements chain.Gateway.
func (g *RPCGateway) FeeBaseline(ctx context.Context, ledger chain.ID) (*chain.Fee, error) {
	switch ledger {
	case chain.C:
		var baseFee hexutil.Big
		if err := g.eth.Client().CallContext(ctx, &baseFee, "eth_baseFee"); err == nil {
			return &chain.Fee{Ledger: chain.C, BaseFee: baseFee.ToInt()}, nil
		}
		// Nodes without eth_baseFee still quote a gas price.
		price, err := g.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("eth_gasPrice: %w", err)
		}
		return &chain.Fee{Ledger: chain.C, BaseFee: price}, nil

	case chain.P:
		var res struct {
			TxFee string `json:"txFee"`
		}
		if err := g.info.CallContext(ctx, &res, "info.getTxFee"); err != nil {
			return nil, fmt.Errorf("info.getTxFee: %w", err)
		}
		fee, err := parseUint(res.TxFee, "txFee")
		if err != nil {
			return nil, err
		}
		return &chain.Fee{Ledger: chain.P, StaticFee: fee}, nil

	default:
		return nil, unsupported(ledger)
	}
}

// Submit implements chain.Gateway.
func (g *RPCGateway) Submit(ctx context.Context, tx *chain.SignedTx, ledger chain.ID) (string, error) {
	client, method, err := g.endpoint(ledger, "avax.issueTx", "platform.issueTx")
	if err != nil {
		return "", err
	}
	payload, err := tx.Bytes()
	if err != nil {
		return "", fmt.Errorf("encoding transaction: %w", err)
	}

	var res struct {
		TxID string `json:"txID"`
	}
	if err := client.CallContext(ctx, &res, method, map[string]any{
		"tx":       encodeHex(payload),
		"encoding": encodingHex,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	return res.TxID, nil
}

// Status implements chain.Gateway.
func (g *RPCGateway) Status(ctx context.Context, txID string, ledger chain.ID) (chain.TxStatus, error) {
	client, method, err := g.endpoint(ledger, "avax.getAtomicTxStatus", "platform.getTxStatus")
	if err != nil {
		return chain.StatusUnknown, err
	}

	var res struct {
		Status string `json:"status"`
	}
	if err := client.CallContext(ctx, &res, method, map[string]any{"txID": txID}); err != nil {
		return chain.StatusUnknown, fmt.Errorf("%s: %w", method, err)
	}
	return chain.ParseTxStatus(res.Status), nil
}

type utxoIndex struct {
	Address string `json:"address"`
	UTXO    string `json:"utxo"`
}

type utxoPage struct {
	NumFetched string    `json:"numFetched"`
	UTXOs      []string  `json:"utxos"`
	EndIndex   utxoIndex `json:"endIndex"`
}

// EscrowUTXOs implements chain.Gateway. It pages through every atomic
// output exported to the account from the counterpart ledger.
func (g *RPCGateway) EscrowUTXOs(ctx context.Context, account chain.Account, ledger chain.ID) (chain.UTXOSet, error) {
	client, method, err := g.endpoint(ledger, "avax.getUTXOs", "platform.getUTXOs")
	if err != nil {
		return chain.UTXOSet{}, err
	}

	address := account.ImportAddressFor(ledger)
	set := chain.UTXOSet{Ledger: ledger, SourceChain: ledger.Counterpart()}

	var start *utxoIndex
	for page := 0; page < maxUTXOPages; page++ {
		params := map[string]any{
			"addresses":   []string{address},
			"sourceChain": set.SourceChain.String(),
			"limit":       utxoPageLimit,
			"encoding":    encodingHex,
		}
		if start != nil {
			params["startIndex"] = start
		}

		var res utxoPage
		if err := client.CallContext(ctx, &res, method, params); err != nil {
			return chain.UTXOSet{}, fmt.Errorf("%s: %w", method, err)
		}
		for _, raw := range res.UTXOs {
			u, err := decodeUTXO(raw, address)
			if err != nil {
				return chain.UTXOSet{}, err
			}
			set.UTXOs = append(set.UTXOs, u)
		}

		fetched, err := strconv.Atoi(res.NumFetched)
		if err != nil || fetched < utxoPageLimit {
			break
		}
		start = &res.EndIndex
	}
	return set, nil
}

func (g *RPCGateway) endpoint(ledger chain.ID, cMethod, pMethod string) (*rpc.Client, string, error) {
	switch ledger {
	case chain.C:
		return g.cAvax, cMethod, nil
	case chain.P:
		return g.pChain, pMethod, nil
	default:
		return nil, "", unsupported(ledger)
	}
}

func unsupported(ledger chain.ID) error {
	return earnerr.WithDetails(earnerr.ErrNotSupported, map[string]string{"ledger": ledger.String()})
}

func parseUint(s, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s %q", errMalformed, field, s)
	}
	return v, nil
}
