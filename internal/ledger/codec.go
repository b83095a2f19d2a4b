package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/sigil-earn/internal/chain"
)

// errMalformed reports a node response that does not decode.
var errMalformed = errors.New("malformed node response")

const (
	checksumLen = 4

	// Offsets into a serialized UTXO: codec version, tx id, output index,
	// asset id, output type id, then the output's amount.
	utxoTxIDOffset   = 2
	utxoIndexOffset  = utxoTxIDOffset + 32
	utxoAmountOffset = utxoIndexOffset + 4 + 32 + 4
	utxoMinLen       = utxoAmountOffset + 8
)

// encodeHex renders b the way the node expects "hex" encoded payloads:
// 0x-prefixed with a trailing 4-byte SHA-256 checksum.
func encodeHex(b []byte) string {
	sum := sha256.Sum256(b)
	out := make([]byte, 0, len(b)+checksumLen)
	out = append(out, b...)
	out = append(out, sum[len(sum)-checksumLen:]...)
	return hexutil.Encode(out)
}

// decodeHex reverses encodeHex and verifies the checksum.
func decodeHex(s string) ([]byte, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	if len(raw) < checksumLen {
		return nil, fmt.Errorf("%w: payload shorter than checksum", errMalformed)
	}
	body, check := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[len(sum)-checksumLen:], check) {
		return nil, fmt.Errorf("%w: checksum mismatch", errMalformed)
	}
	return body, nil
}

// decodeUTXO extracts the fields the importer needs from a serialized
// secp256k1 transfer output.
func decodeUTXO(s, address string) (chain.UTXO, error) {
	b, err := decodeHex(s)
	if err != nil {
		return chain.UTXO{}, err
	}
	if len(b) < utxoMinLen {
		return chain.UTXO{}, fmt.Errorf("%w: utxo is %d bytes", errMalformed, len(b))
	}

	txID := hex.EncodeToString(b[utxoTxIDOffset:utxoIndexOffset])
	index := binary.BigEndian.Uint32(b[utxoIndexOffset : utxoIndexOffset+4])
	return chain.UTXO{
		ID:          fmt.Sprintf("%s:%d", txID, index),
		TxID:        txID,
		OutputIndex: index,
		Amount:      binary.BigEndian.Uint64(b[utxoAmountOffset:utxoMinLen]),
		Address:     address,
	}, nil
}
