package main

import (
	"fmt"
	"time"
)

// fundingTiers are the only accepted top-up amounts, in USD
var fundingTiers = []float64{0.10, 0.25, 5.00}

// Verification poll window. Base confirmations usually land well inside
// 30 seconds, so 10 attempts at a fixed 3s spacing keeps the CLI
// responsive without giving up early.
var (
	verifyPollAttempts = 10
	verifyPollDelay    = 3 * time.Second
)

// fundQuoteResponse is the app proxy's funding quote: either an immediate
// success (balance sufficient) or a payment-required shape naming where
// to pay
type fundQuoteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Accepts []struct {
		PayTo string `json:"payTo"`
		Extra struct {
			Facilitator string `json:"facilitator"`
		} `json:"extra"`
	} `json:"accepts"`
}

// fundVerifyResponse is the payment verification result
type fundVerifyResponse struct {
	Success              bool   `json:"success"`
	AlreadyProcessed     bool   `json:"alreadyProcessed"`
	BackendWalletAddress string `json:"backendWalletAddress"`
	Error                string `json:"error"`
}

// fundingResult reports the outcome of ensureFunded
type fundingResult struct {
	Funded               bool   `json:"funded"`
	BackendWalletAddress string `json:"backendWalletAddress,omitempty"`
	TxHash               string `json:"txHash,omitempty"`
}

// validFundingTier reports whether the amount is one of the accepted tiers
func validFundingTier(amountUsd float64) bool {
	for _, tier := range fundingTiers {
		if amountUsd == tier {
			return true
		}
	}
	return false
}

// fundingTierList formats the accepted tiers for error messages
func fundingTierList() string {
	out := ""
	for i, tier := range fundingTiers {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("$%.2f", tier)
	}
	return out
}

// ensureFunded makes sure the relay-held wallet for this operator can
// cover uploads, soliciting and verifying a USDC payment when it cannot.
// txHash may carry a pre-sent payment. Returns errActionDeferred when
// payment instructions were emitted instead of a transaction.
func ensureFunded(wallet string, amountUsd float64, txHash string) (fundingResult, error) {
	if !validFundingTier(amountUsd) {
		return fundingResult{}, fmt.Errorf("invalid amount. Choose: %s", fundingTierList())
	}

	// Funding quote; a sufficient balance short-circuits the whole flow
	var quote fundQuoteResponse
	if err := appPost("/api/relay/fund", map[string]any{
		"operatorAddress": wallet,
		"chainId":         baseChainID,
		"amountUsdc":      amountUsd,
	}, &quote); err != nil {
		return fundingResult{}, err
	}
	if quote.Success {
		return fundingResult{Funded: true}, nil
	}

	payTo := ""
	if len(quote.Accepts) > 0 {
		payTo = quote.Accepts[0].PayTo
		if payTo == "" {
			payTo = quote.Accepts[0].Extra.Facilitator
		}
	}
	if payTo == "" {
		return fundingResult{}, fmt.Errorf("could not get payment address from relay")
	}

	txHash, err := handlePayment(amountUsd, paymentOpts{TxHash: txHash, PayTo: payTo, Wallet: wallet})
	if err != nil {
		return fundingResult{}, err
	}

	if !jsonMode {
		fmt.Println(styleDim.Render("Verifying payment with relay..."))
	}

	for attempt := 1; attempt <= verifyPollAttempts; attempt++ {
		var verify fundVerifyResponse
		if err := appPost("/api/relay/fund/verify", map[string]any{
			"operatorAddress": wallet,
			"chainId":         baseChainID,
			"paymentTxHash":   txHash,
		}, &verify); err != nil {
			return fundingResult{}, err
		}

		if verify.Success || verify.AlreadyProcessed {
			return fundingResult{
				Funded:               true,
				BackendWalletAddress: verify.BackendWalletAddress,
				TxHash:               txHash,
			}, nil
		}

		if attempt < verifyPollAttempts {
			if !jsonMode {
				fmt.Println(styleDim.Render(fmt.Sprintf("  Waiting for confirmation (attempt %d/%d)...", attempt, verifyPollAttempts)))
			}
			time.Sleep(verifyPollDelay)
		}
	}

	// Recoverable: the payment may still confirm; the balance can be
	// rechecked without paying again
	return fundingResult{TxHash: txHash}, fmt.Errorf("payment verification timed out. The relay may take a few moments to process. Check balance with: netlibrary relay balance")
}
