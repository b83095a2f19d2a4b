package signer

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address format requires RIPEMD-160

	"github.com/mrz1836/sigil-earn/internal/chain"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// ShortIDSize is the length of an address payload in bytes.
const ShortIDSize = 20

// ShortID returns RIPEMD160(SHA256(pubkey)) of a compressed public key.
func ShortID(compressedPubKey []byte) []byte {
	sum := sha256.Sum256(compressedPubKey)
	h := ripemd160.New()
	_, _ = h.Write(sum[:])
	return h.Sum(nil)
}

// FormatAddress renders a short id as "<ledger>-<hrp>1..." bech32.
func FormatAddress(ledger chain.ID, hrp string, shortID []byte) (string, error) {
	if len(shortID) != ShortIDSize {
		return "", fmt.Errorf("short id must be %d bytes, got %d", ShortIDSize, len(shortID))
	}
	conv, err := bech32.ConvertBits(shortID, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}
	encoded, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("bech32 encode: %w", err)
	}
	return ledger.String() + "-" + encoded, nil
}

// ParseAddress splits a chain-prefixed bech32 address into its parts.
func ParseAddress(addr string) (chain.ID, string, []byte, error) {
	prefix, rest, ok := strings.Cut(addr, "-")
	if !ok {
		return "", "", nil, invalidAddress(addr, "missing ledger prefix")
	}
	ledger, ok := chain.ParseID(prefix)
	if !ok {
		return "", "", nil, invalidAddress(addr, "unknown ledger prefix")
	}
	hrp, data, err := bech32.Decode(rest)
	if err != nil {
		return "", "", nil, invalidAddress(addr, err.Error())
	}
	shortID, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", "", nil, invalidAddress(addr, err.Error())
	}
	if len(shortID) != ShortIDSize {
		return "", "", nil, invalidAddress(addr, "wrong payload length")
	}
	return ledger, hrp, shortID, nil
}

func invalidAddress(addr, reason string) error {
	return earnerr.WithDetails(earnerr.ErrInvalidAddress, map[string]string{
		"address": addr,
		"reason":  reason,
	})
}
