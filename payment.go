package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	usdcContract    = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	treasuryAddress = "0xAcAD71e697Ef3bb148093b2DD2fCf0845e957627"
	baseChainID     = 8453

	castSendTimeout = 120 * time.Second
)

// errActionDeferred marks a flow that stopped after emitting manual
// instructions or a declined prompt. It is a success exit, not a failure.
var errActionDeferred = errors.New("action deferred")

// confirmInput is the prompt source; tests replace it
var confirmInput io.Reader = os.Stdin

// usdcMinorUnits converts a dollar amount to USDC 6-decimal minor units
func usdcMinorUnits(dollars float64) string {
	return strconv.FormatInt(int64(math.Round(dollars*1_000_000)), 10)
}

// confirm asks a yes/no question on the terminal. JSON mode (agent use)
// auto-confirms, matching non-interactive expectations.
func confirm(message string) bool {
	if jsonMode {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s (y/N) ", message)
	scanner := bufio.NewScanner(confirmInput)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "y")
}

// castSendResult is the JSON cast prints for a submitted transaction
type castSendResult struct {
	TransactionHash string `json:"transactionHash"`
}

// runCastSend invokes cast send with a hard wall-clock limit and returns
// the transaction hash
func runCastSend(castPath string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), castSendTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, castPath, append([]string{"send"}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("cast send failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("cast send failed: %w", err)
	}

	var result castSendResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &result); err != nil {
		return "", fmt.Errorf("could not parse cast send output: %w", err)
	}
	if result.TransactionHash == "" {
		return "", fmt.Errorf("cast send returned no transaction hash")
	}
	return result.TransactionHash, nil
}

// signerArgs returns the cast key/account selection flags
func signerArgs(wallet string) []string {
	if pk := os.Getenv("PRIVATE_KEY"); pk != "" {
		return []string{"--private-key", pk}
	}
	return []string{"--from", wallet}
}

// paymentOpts configures handlePayment
type paymentOpts struct {
	TxHash string // pre-sent payment, skip submission
	PayTo  string // defaults to the treasury
	Wallet string
	RPCURL string
}

// handlePayment obtains a USDC payment transaction hash: a caller-supplied
// hash wins; with cast on PATH the transfer is submitted after
// confirmation; otherwise manual payment instructions are printed and
// errActionDeferred is returned.
func handlePayment(amountUsd float64, opts paymentOpts) (string, error) {
	if opts.TxHash != "" {
		return opts.TxHash, nil
	}

	payTo := opts.PayTo
	if payTo == "" {
		payTo = treasuryAddress
	}

	castPath, err := exec.LookPath("cast")
	if err != nil {
		printPaymentInstructions(amountUsd, payTo)
		return "", errActionDeferred
	}

	wallet := opts.Wallet
	if wallet == "" {
		wallet, err = requireWallet()
		if err != nil {
			return "", err
		}
	}
	rpc := opts.RPCURL
	if rpc == "" {
		rpc = rpcURL()
	}

	if !confirm(fmt.Sprintf("This will send $%.2f USDC from %s. Proceed?", amountUsd, wallet)) {
		fmt.Println("Cancelled.")
		return "", errActionDeferred
	}

	if !jsonMode {
		fmt.Println(styleDim.Render(fmt.Sprintf("Sending $%.2f USDC...", amountUsd)))
	}

	args := []string{
		usdcContract,
		"transfer(address,uint256)",
		payTo, usdcMinorUnits(amountUsd),
		"--rpc-url", rpc,
		"--json",
	}
	args = append(args, signerArgs(wallet)...)

	txHash, err := runCastSend(castPath, args)
	if err != nil {
		return "", fmt.Errorf("payment failed: %w", err)
	}
	if !jsonMode {
		fmt.Println(styleSuccess.Render("✓"), "Payment sent:", txHash)
	}
	return txHash, nil
}

// printPaymentInstructions emits everything needed to send the USDC
// transfer out of band
func printPaymentInstructions(amountUsd float64, payTo string) {
	if jsonMode {
		printJSON(map[string]any{
			"paymentRequired": true,
			"payTo":           payTo,
			"amount":          amountUsd,
			"amountRaw":       usdcMinorUnits(amountUsd),
			"usdcContract":    usdcContract,
			"chainId":         baseChainID,
		})
		return
	}
	fmt.Println()
	fmt.Println(styleWarn.Render(fmt.Sprintf("Send $%.2f USDC on Base:", amountUsd)))
	fmt.Println()
	fmt.Printf("  Pay To:   %s\n", styleAccent.Render(payTo))
	fmt.Printf("  USDC:     %s\n", styleAccent.Render(usdcContract))
	fmt.Printf("  Amount:   %s (%s raw)\n", styleSuccess.Render(fmt.Sprintf("$%.2f USDC", amountUsd)), usdcMinorUnits(amountUsd))
	fmt.Printf("  Chain:    Base (%d)\n", baseChainID)
	fmt.Println()
	fmt.Printf("After sending, re-run this command with %s\n", styleAccent.Render("--tx-hash <hash>"))
}
