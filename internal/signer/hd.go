package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/sigil-earn/internal/chain"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// BIP44 path m/44'/9000'/0'/0/index.
const (
	PurposeBIP44      = bip32.FirstHardenedChild + 44
	CoinTypeAvalanche = bip32.FirstHardenedChild + 9000
	AccountZero       = bip32.FirstHardenedChild + 0
	ChangeExternal    = 0
)

// Mnemonic signs with secp256k1 keys derived from a BIP39 phrase. Derived
// keys are cached per index. It is safe for concurrent use.
type Mnemonic struct {
	network chain.Network

	mu       sync.Mutex
	external *bip32.Key // m/44'/9000'/0'/0
	keys     map[uint32]*ecdsa.PrivateKey
	closed   bool
}

// NewMnemonic validates the phrase and derives the external chain key.
func NewMnemonic(mnemonic, passphrase string, network chain.Network) (*Mnemonic, error) {
	if NormalizeMnemonic(mnemonic) == "" {
		return nil, earnerr.ErrMnemonicRequired
	}
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	if !network.IsValid() {
		return nil, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{"network": network.String()})
	}

	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), passphrase)
	if err != nil {
		return nil, earnerr.WithCause(earnerr.ErrInvalidMnemonic, err, nil)
	}
	defer zero(seed)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	external := master
	for _, idx := range []uint32{PurposeBIP44, CoinTypeAvalanche, AccountZero, ChangeExternal} {
		if external, err = external.NewChildKey(idx); err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	return &Mnemonic{
		network:  network,
		external: external,
		keys:     make(map[uint32]*ecdsa.PrivateKey),
	}, nil
}

// Network returns the network addresses are encoded for.
func (m *Mnemonic) Network() chain.Network {
	return m.network
}

// Sign implements chain.Signer with a 65-byte recoverable signature over
// the transaction digest.
func (m *Mnemonic) Sign(ctx context.Context, tx *chain.UnsignedTx, accountIndex uint32, ledger chain.ID) (*chain.SignedTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ledger != chain.C && ledger != chain.P {
		return nil, earnerr.WithDetails(earnerr.ErrNotSupported, map[string]string{"ledger": ledger.String()})
	}
	if tx == nil {
		return nil, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{"tx": "nil"})
	}
	if tx.AccountIndex != accountIndex {
		return nil, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
			"tx_account_index": fmt.Sprintf("%d", tx.AccountIndex),
			"account_index":    fmt.Sprintf("%d", accountIndex),
		})
	}

	digest, err := tx.Digest()
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	key, err := m.key(accountIndex)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return &chain.SignedTx{Unsigned: tx, Digest: digest, Signature: sig}, nil
}

// Account derives the addresses for one account index.
func (m *Mnemonic) Account(walletID string, index uint32) (chain.Account, error) {
	key, err := m.key(index)
	if err != nil {
		return chain.Account{}, err
	}
	shortID := ShortID(crypto.CompressPubkey(&key.PublicKey))
	hrp := m.network.HRP()

	atomic, err := FormatAddress(chain.C, hrp, shortID)
	if err != nil {
		return chain.Account{}, err
	}
	pAddr, err := FormatAddress(chain.P, hrp, shortID)
	if err != nil {
		return chain.Account{}, err
	}
	return chain.Account{
		WalletID:      walletID,
		Index:         index,
		EVMAddress:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		AtomicAddress: atomic,
		PAddress:      pAddr,
	}, nil
}

// Close drops all key material. Later calls fail.
func (m *Mnemonic) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, k := range m.keys {
		k.D.SetInt64(0)
		delete(m.keys, i)
	}
	if m.external != nil {
		zero(m.external.Key)
		m.external = nil
	}
	m.closed = true
}

func (m *Mnemonic) key(index uint32) (*ecdsa.PrivateKey, error) {
	if index >= bip32.FirstHardenedChild {
		return nil, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
			"account_index": fmt.Sprintf("%d", index),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("signer closed")
	}
	if k, ok := m.keys[index]; ok {
		return k, nil
	}

	child, err := m.external.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	raw := child.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	k, err := crypto.ToECDSA(raw)
	zero(child.Key)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	m.keys[index] = k
	return k, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
