package main

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// toBytes32 normalizes a storage key to 64 hex characters (no 0x prefix).
// Short keys are LEFT-padded with zeros; over-length keys keep their first
// 64 characters. This matches the indexer's own key normalization exactly.
func toBytes32(hexStr string) string {
	clean := strings.TrimPrefix(strings.TrimPrefix(hexStr, "0x"), "0X")
	clean = strings.ToLower(clean)
	if len(clean) > 64 {
		return clean[:64]
	}
	return strings.Repeat("0", 64-len(clean)) + clean
}

// decodePackedHex decodes hex pairs until the first non-hex pair, then
// stops. The indexer decodes the packed string the same way, so keys that
// are not pure hex (e.g. stack ids) must truncate identically here or the
// derived score key will not match.
func decodePackedHex(s string) []byte {
	out := make([]byte, 0, len(s)/2)
	for i := 0; i+2 <= len(s); i += 2 {
		hi, ok1 := hexNibble(s[i])
		lo, ok2 := hexNibble(s[i+1])
		if !ok1 || !ok2 {
			break
		}
		out = append(out, hi<<4|lo)
	}
	return out
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// deriveScoreKey computes the on-chain score key for an entity:
// keccak256(bytes32(storageKey) ‖ address(operator)). The packing and the
// legacy Keccak-256 padding must byte-match the scoring contract's own
// derivation or lookups silently resolve to zero.
func deriveScoreKey(storageKey, operatorAddress string) string {
	keyHex := toBytes32(storageKey)
	addrHex := strings.TrimPrefix(strings.ToLower(operatorAddress), "0x")
	if len(addrHex) < 40 {
		addrHex = strings.Repeat("0", 40-len(addrHex)) + addrHex
	}
	packed := decodePackedHex(keyHex + addrHex)
	return hexutil.Encode(crypto.Keccak256(packed))
}
