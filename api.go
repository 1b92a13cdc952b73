package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// httpClient is shared by all REST and relay calls. Every request carries
// an explicit deadline so a dead remote cannot hang the CLI.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// apiError carries the catalog's own error text alongside the HTTP status
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return e.Message
}

// networkTimeoutError marks a request that hit the client deadline,
// distinct from a generic transport failure
type networkTimeoutError struct {
	URL string
	err error
}

func (e *networkTimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out: %v", e.URL, e.err)
}

func (e *networkTimeoutError) Unwrap() error {
	return e.err
}

// classifyRequestError wraps deadline expiries in networkTimeoutError
func classifyRequestError(rawURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &networkTimeoutError{URL: rawURL, err: err}
	}
	return fmt.Errorf("request failed: %w", err)
}

// apiV1Base returns the catalog base URL without a trailing slash
func apiV1Base() string {
	return strings.TrimRight(baseURL(), "/")
}

// apiRootBase returns the base URL with a trailing /v1 stripped, for
// endpoints that live at the API root (e.g. /upvotes, /member-registry)
func apiRootBase() string {
	base := strings.TrimRight(baseURL(), "/")
	return strings.TrimSuffix(base, "/v1")
}

// appBase returns the application root, stripping a trailing /api/v1
func appBase() string {
	base := strings.TrimRight(baseURL(), "/")
	return strings.TrimSuffix(base, "/api/v1")
}

// requestBase selects which root a request is addressed to
type requestBase int

const (
	baseV1      requestBase = iota // the /v1 catalog (default)
	baseAPIRoot                    // API root: /upvotes, /member-registry
	baseAppRoot                    // application root: /api/relay/fund
)

// requestOpts controls a single catalog request
type requestOpts struct {
	query url.Values
	body  any
	auth  bool
	base  requestBase
	// anyStatus decodes the response body on every HTTP status instead of
	// treating non-2xx as an error. The app proxy answers funding quotes
	// with 402 Payment Required and a JSON body naming where to pay.
	anyStatus bool
}

// apiRequest performs a catalog request and decodes the JSON response into
// out (which may be nil). Non-2xx responses surface the catalog's error or
// message field when present.
func apiRequest(method, path string, opts requestOpts, out any) error {
	base := apiV1Base()
	switch opts.base {
	case baseAPIRoot:
		base = apiRootBase()
	case baseAppRoot:
		base = appBase()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := base + path
	if len(opts.query) > 0 {
		fullURL += "?" + opts.query.Encode()
	}

	var bodyReader io.Reader
	if opts.body != nil {
		data, err := json.Marshal(opts.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.auth {
		if key := apiKey(); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
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

	if !opts.anyStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return &apiError{Status: resp.StatusCode, Message: extractErrorMessage(text, resp.StatusCode)}
	}

	if out != nil && len(text) > 0 {
		if err := json.Unmarshal(text, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// extractErrorMessage pulls error/message out of an error envelope,
// falling back to the HTTP status
func extractErrorMessage(body []byte, status int) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// apiGet performs a GET against the /v1 catalog
func apiGet(path string, query url.Values, auth bool, out any) error {
	return apiRequest("GET", path, requestOpts{query: query, auth: auth}, out)
}

// apiPost performs a POST against the /v1 catalog
func apiPost(path string, body any, auth bool, out any) error {
	return apiRequest("POST", path, requestOpts{body: body, auth: auth}, out)
}

// apiPostRoot performs a POST against the API root (no /v1)
func apiPostRoot(path string, body any, auth bool, out any) error {
	return apiRequest("POST", path, requestOpts{body: body, auth: auth, base: baseAPIRoot}, out)
}

// appPost performs a POST against the application root (no /api/v1). The
// body is decoded on every status: the proxy reports payment-required
// quotes and pending verifications through non-2xx responses whose JSON
// still carries the flow state.
func appPost(path string, body any, out any) error {
	return apiRequest("POST", path, requestOpts{body: body, base: baseAppRoot, anyStatus: true}, out)
}

// apiGetRaw fetches a raw text body (CSV downloads)
func apiGetRaw(path string, auth, root bool) (string, error) {
	base := apiV1Base()
	if root {
		base = apiRootBase()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := base + path

	req, err := http.NewRequest("GET", fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if auth {
		if key := apiKey(); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", classifyRequestError(fullURL, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apiError{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return string(text), nil
}
