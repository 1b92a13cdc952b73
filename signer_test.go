package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// well-known throwaway key, never funded
const (
	testPrivateKey  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testKeyAddress  = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	testSessionTime = int64(1767225600) // 2026-01-01T00:00:00Z
)

func TestDetectSignerPrivateKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", testPrivateKey)
	s := detectSigner()
	assert.Equal(t, capabilityPrivateKey, s.capability)
	assert.Equal(t, testPrivateKey, s.privateKey)
}

func TestDetectSignerNone(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("PATH", t.TempDir()) // no cast on PATH
	s := detectSigner()
	assert.Equal(t, capabilityNone, s.capability)
}

func TestSignSessionManualFallback(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("PATH", t.TempDir())

	_, _, err := detectSigner().signSession(testKeyAddress, baseChainID)
	require.Error(t, err)

	var manual *manualSignError
	require.ErrorAs(t, err, &manual)
	assert.Equal(t, "RelaySession", manual.TypedData.PrimaryType)
	assert.Greater(t, manual.ExpiresAt, int64(0))
}

func TestSessionTypedDataDocument(t *testing.T) {
	td := sessionTypedData(testKeyAddress, baseChainID, testSessionTime)

	assert.Equal(t, "RelaySession", td.PrimaryType)
	assert.Equal(t, "Net Relay Service", td.Domain.Name)
	assert.Equal(t, "1", td.Domain.Version)

	// The serialized document must carry the full EIP712Domain type array
	// so external signing tools accept it as-is
	doc, err := json.Marshal(td)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"EIP712Domain"`)
	assert.Contains(t, string(doc), `"RelaySession"`)
	assert.Contains(t, string(doc), `"secretKeyHash"`)
	assert.Contains(t, string(doc), relaySecretKeyHash)

	// And it must be hashable under the standard EIP-712 scheme
	_, _, err = apitypes.TypedDataAndHash(td)
	require.NoError(t, err)
}

func TestSignTypedDataWithKeyRecoversSigner(t *testing.T) {
	td := sessionTypedData(testKeyAddress, baseChainID, testSessionTime)

	sigHex, err := signTypedDataWithKey(td, testPrivateKey)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	// Recover the pubkey and check it matches the signing wallet
	hash, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)

	recSig := make([]byte, 65)
	copy(recSig, sig)
	recSig[64] -= 27
	pub, err := crypto.SigToPub(hash, recSig)
	require.NoError(t, err)
	assert.Equal(t, testKeyAddress, crypto.PubkeyToAddress(*pub).Hex())
}

func TestSignTypedDataWithKeyDeterministic(t *testing.T) {
	td := sessionTypedData(testKeyAddress, baseChainID, testSessionTime)
	first, err := signTypedDataWithKey(td, testPrivateKey)
	require.NoError(t, err)
	second, err := signTypedDataWithKey(td, "0x"+testPrivateKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSignTypedDataWithKeyInvalid(t *testing.T) {
	td := sessionTypedData(testKeyAddress, baseChainID, testSessionTime)
	_, err := signTypedDataWithKey(td, "not-a-key")
	assert.ErrorContains(t, err, "invalid private key")
}

// fakeCast installs a stub cast binary with the given script body and
// returns its path
func fakeCast(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cast")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return path
}

func TestSignTypedDataWithCastSuccess(t *testing.T) {
	s := sessionSigner{
		capability: capabilityCastTool,
		castPath:   fakeCast(t, "echo 0xdeadbeef"),
	}
	td := sessionTypedData(testKeyAddress, baseChainID, testSessionTime)

	sig, err := s.signTypedDataWithCast(td, testKeyAddress)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", sig)
}

func TestSignTypedDataWithCastFailureNamesKeystore(t *testing.T) {
	s := sessionSigner{
		capability: capabilityCastTool,
		castPath:   fakeCast(t, "echo 'error: no associated wallet' >&2; exit 1"),
	}
	td := sessionTypedData(testKeyAddress, baseChainID, testSessionTime)

	_, err := s.signTypedDataWithCast(td, testKeyAddress)
	require.Error(t, err)
	assert.ErrorContains(t, err, "keystore account")
	assert.ErrorContains(t, err, testKeyAddress)
	assert.ErrorContains(t, err, "no associated wallet")
}

func TestParseSignatureOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{"bare signature", "0xdeadbeef\n", "0xdeadbeef", false},
		{"report line", "Transaction ready\nSignature: 0xdeadbeef\n", "0xdeadbeef", false},
		{"lowercase label", "signature: 0xABCD", "0xABCD", false},
		{"garbage", "no signature here", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSignatureOutput(tc.output)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
