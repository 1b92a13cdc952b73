package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	relaySecretKey = "net-relay-public-access-key-v1"
	// keccak256 of relaySecretKey; a fixed public constant, not
	// per-request entropy
	relaySecretKeyHash = "0x895bfc170fa97f5c512e664f1f75d0a46413e041815da9c74c2ccf24d38bfd78"

	sessionTTL      = 3600 * time.Second
	castSignTimeout = 30 * time.Second
)

// upstreamRelayURL is the relay service root. Package variable so tests can
// point it at a local server.
var upstreamRelayURL = "https://www.netprotocol.app/api/relay"

// signingCapability identifies the best available signing mechanism,
// probed once per invocation
type signingCapability int

const (
	capabilityNone signingCapability = iota
	capabilityPrivateKey
	capabilityCastTool
)

// sessionSigner signs relay session typed data with whatever capability
// the environment offers
type sessionSigner struct {
	capability signingCapability
	privateKey string // hex-encoded, capabilityPrivateKey only
	castPath   string // resolved binary path, capabilityCastTool only
}

// detectSigner probes for signing capabilities: an in-process private key
// wins, then a cast binary on PATH, then nothing
func detectSigner() sessionSigner {
	if pk := os.Getenv("PRIVATE_KEY"); pk != "" {
		return sessionSigner{capability: capabilityPrivateKey, privateKey: pk}
	}
	if path, err := exec.LookPath("cast"); err == nil {
		return sessionSigner{capability: capabilityCastTool, castPath: path}
	}
	return sessionSigner{capability: capabilityNone}
}

// manualSignError is not a failure: it carries the complete typed-data
// document so the caller can sign out of process and resume with
// --session-token
type manualSignError struct {
	TypedData apitypes.TypedData
	ExpiresAt int64
}

func (e *manualSignError) Error() string {
	return "no signing method available. Sign the EIP-712 data manually and pass --session-token"
}

// sessionTypedData builds the EIP-712 document for a relay session. The
// domain, type set, and field order are fixed by the relay service and must
// not change.
func sessionTypedData(wallet string, chainID, expiresAt int64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"RelaySession": []apitypes.Type{
				{Name: "operatorAddress", Type: "address"},
				{Name: "secretKeyHash", Type: "bytes32"},
				{Name: "expiresAt", Type: "uint256"},
			},
		},
		PrimaryType: "RelaySession",
		Domain: apitypes.TypedDataDomain{
			Name:    "Net Relay Service",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: apitypes.TypedDataMessage{
			"operatorAddress": wallet,
			"secretKeyHash":   relaySecretKeyHash,
			"expiresAt":       strconv.FormatInt(expiresAt, 10),
		},
	}
}

// signSession produces a signature over the relay session typed data,
// valid for sessionTTL from now. With no capability it returns a
// manualSignError carrying the document.
func (s sessionSigner) signSession(wallet string, chainID int64) (string, int64, error) {
	expiresAt := time.Now().Add(sessionTTL).Unix()
	typedData := sessionTypedData(wallet, chainID, expiresAt)

	switch s.capability {
	case capabilityPrivateKey:
		sig, err := signTypedDataWithKey(typedData, s.privateKey)
		if err != nil {
			return "", 0, err
		}
		return sig, expiresAt, nil
	case capabilityCastTool:
		sig, err := s.signTypedDataWithCast(typedData, wallet)
		if err != nil {
			return "", 0, err
		}
		return sig, expiresAt, nil
	default:
		return "", 0, &manualSignError{TypedData: typedData, ExpiresAt: expiresAt}
	}
}

// signTypedDataWithKey signs the EIP-712 hash with an in-process ECDSA key
func signTypedDataWithKey(typedData apitypes.TypedData, privateKey string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	// Ethereum signatures carry v as 27/28
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

var signatureOutputRe = regexp.MustCompile(`(?i)signature:\s+(0x[0-9a-fA-F]+)`)

// signTypedDataWithCast hands the full typed-data document to cast via a
// uniquely named temp file, removed on every exit path so concurrent
// invocations cannot race on it
func (s sessionSigner) signTypedDataWithCast(typedData apitypes.TypedData, wallet string) (string, error) {
	doc, err := json.Marshal(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal typed data: %w", err)
	}

	tmp, err := os.CreateTemp("", "netlibrary-relay-session-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write typed data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write typed data: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), castSignTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.castPath, "wallet", "sign",
		"--from", wallet, "--data", "--from-file", tmp.Name())
	out, err := cmd.CombinedOutput()
	if err != nil {
		// --from resolves only against a configured foundry keystore;
		// without one the user must export PRIVATE_KEY instead
		return "", fmt.Errorf("cast sign failed (cast needs a keystore account for %s when PRIVATE_KEY is unset): %v: %s",
			wallet, err, strings.TrimSpace(string(out)))
	}

	return parseSignatureOutput(string(out))
}

// parseSignatureOutput extracts a signature from signing-tool output: either
// a bare 0x line or a "Signature: 0x..." report line
func parseSignatureOutput(out string) (string, error) {
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "0x") {
		return strings.Fields(trimmed)[0], nil
	}
	if m := signatureOutputRe.FindStringSubmatch(trimmed); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("could not parse signature from signing tool output: %s", trimmed)
}
