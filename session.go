package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// sessionOpts configures createSession. A pre-obtained SessionToken skips
// signing and the relay round trip entirely (the manual-signing resume
// path).
type sessionOpts struct {
	Wallet       string
	ChainID      int64
	SessionToken string
}

// sessionResult is a relay bearer credential. ExpiresAt is zero when the
// token was supplied by the caller.
type sessionResult struct {
	SessionToken string `json:"sessionToken"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

// sessionResponse is the relay's session endpoint response
type sessionResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"sessionToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	Error        string `json:"error"`
}

// createSession exchanges a signed session authorization for a relay
// bearer token, valid one hour
func createSession(opts sessionOpts) (sessionResult, error) {
	if opts.SessionToken != "" {
		return sessionResult{SessionToken: opts.SessionToken}, nil
	}

	wallet := opts.Wallet
	if wallet == "" {
		var err error
		wallet, err = requireWallet()
		if err != nil {
			return sessionResult{}, err
		}
	}
	chainID := opts.ChainID
	if chainID == 0 {
		chainID = baseChainID
	}

	signature, expiresAt, err := detectSigner().signSession(wallet, chainID)
	if err != nil {
		return sessionResult{}, err
	}

	var data sessionResponse
	if err := relayPost("/session", map[string]any{
		"chainId":         chainID,
		"operatorAddress": wallet,
		"secretKey":       relaySecretKey,
		"signature":       signature,
		"expiresAt":       expiresAt,
	}, false, &data); err != nil {
		return sessionResult{}, err
	}

	if !data.Success || data.SessionToken == "" {
		if data.Error != "" {
			return sessionResult{}, fmt.Errorf("session creation failed: %s", data.Error)
		}
		return sessionResult{}, fmt.Errorf("session creation failed: relay returned no token")
	}

	return sessionResult{SessionToken: data.SessionToken, ExpiresAt: data.ExpiresAt}, nil
}

// relayPost POSTs to the upstream relay. withSecret adds the shared access
// key header and body field used by the balance endpoint.
func relayPost(endpoint string, body map[string]any, withSecret bool, out any) error {
	if withSecret {
		body["secretKey"] = relaySecretKey
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	fullURL := upstreamRelayURL + endpoint
	req, err := http.NewRequest("POST", fullURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if withSecret {
		req.Header.Set("X-Relay-Secret", relaySecretKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return classifyRequestError(fullURL, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && len(text) > 0 {
		if err := json.Unmarshal(text, out); err != nil {
			return fmt.Errorf("failed to decode relay response: %w", err)
		}
	}
	return nil
}
