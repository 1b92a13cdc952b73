package main

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOperator = "0x1111111111111111111111111111111111112222"

func TestRelaySecretKeyHash(t *testing.T) {
	// The precomputed constant must equal keccak256 of the public access
	// key, or every session signature the relay verifies will mismatch.
	hash := crypto.Keccak256([]byte(relaySecretKey))
	assert.Equal(t, relaySecretKeyHash, hexutil.Encode(hash))
}

func TestToBytes32(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short hex left-padded", "abc123", strings.Repeat("0", 58) + "abc123"},
		{"0x prefix stripped", "0xabc123", strings.Repeat("0", 58) + "abc123"},
		{"upper-cased input lowered", "0xABC123", strings.Repeat("0", 58) + "abc123"},
		{"empty pads to all zero", "", strings.Repeat("0", 64)},
		{"exactly 32 bytes unchanged", strings.Repeat("ab", 32), strings.Repeat("ab", 32)},
		{"over-length keeps first 64 chars", strings.Repeat("ff", 35), strings.Repeat("ff", 32)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, toBytes32(tc.input))
			assert.Len(t, toBytes32(tc.input), 64)
		})
	}
}

func TestDecodePackedHex(t *testing.T) {
	assert.Equal(t, []byte{0xab, 0xc1}, decodePackedHex("abc1"))
	// Decoding stops at the first non-hex pair, like the indexer's decoder
	assert.Equal(t, []byte{0x00, 0x00}, decodePackedHex("0000stk_42"))
	assert.Empty(t, decodePackedHex("zz00"))
	assert.Empty(t, decodePackedHex(""))
}

func TestDeriveScoreKeyVectors(t *testing.T) {
	// Fixed vectors checked against the reference Keccak-256 derivation;
	// these must never change.
	tests := []struct {
		name       string
		storageKey string
		operator   string
		want       string
	}{
		{
			"short hex key",
			"0xabc123", testOperator,
			"0x2c24eea3bcfbf1b252cef480a92ce26137ec7a247224736fe57b1ce17919d6dd",
		},
		{
			"over-length key truncated to 32 bytes",
			strings.Repeat("ff", 35), testOperator,
			"0xc687094345b26f530e0fe4f3b73936d4076a2e73219c9ae95ffba4a47beb04ea",
		},
		{
			"empty key pads to all zero",
			"", "0xAbCdEf0123456789abcdef0123456789ABCDEF01",
			"0xab13e63da579a548bbf5cff767eab929684de07b22d52a2b48384880b19bbb73",
		},
		{
			"non-hex stack id",
			"stk_42", testOperator,
			"0x471ccdcb79bddea38175f8cc115b52365f2c864200fbce48e994511bb9c6006f",
		},
		{
			"full 32-byte content key",
			"0x799d32b7e6d1250f000b1dd11ecdbaaf6ce1e2597bdcfcbbaae34de8b793b21f",
			"0x3fDce702bC62A49dDA1dcD8B48e52d8C72d0b1c5",
			"0x03c6f827330ef4ea8c719dbe0c4b4d5c8bef8ec156053901b5235614999daa33",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveScoreKey(tc.storageKey, tc.operator))
		})
	}
}

func TestDeriveScoreKeyCaseAndPrefixInsensitive(t *testing.T) {
	base := deriveScoreKey("0xabc123", testOperator)
	assert.Equal(t, base, deriveScoreKey("ABC123", testOperator))
	assert.Equal(t, base, deriveScoreKey("0xABC123", testOperator))
	assert.Equal(t, base, deriveScoreKey("0xabc123", strings.ToUpper(testOperator[2:])))
	assert.Equal(t, base, deriveScoreKey("0xabc123", "0x"+strings.ToUpper(testOperator[2:])))
}

func TestDeriveScoreKeyDeterministic(t *testing.T) {
	first := deriveScoreKey("0x799d32b7e6d1250f000b1dd11ecdbaaf6ce1e2597bdcfcbbaae34de8b793b21f", testOperator)
	require.Len(t, first, 66) // 0x + 32 bytes
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, deriveScoreKey("0x799d32b7e6d1250f000b1dd11ecdbaaf6ce1e2597bdcfcbbaae34de8b793b21f", testOperator))
	}
}
