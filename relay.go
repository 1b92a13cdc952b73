package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// relayBalanceResponse is the upstream relay's balance report for an
// operator's backend wallet
type relayBalanceResponse struct {
	Success              bool   `json:"success"`
	BalanceEth           string `json:"balanceEth"`
	SufficientBalance    bool   `json:"sufficientBalance"`
	BackendWalletAddress string `json:"backendWalletAddress"`
	Error                string `json:"error"`
}

// runRelayBalance checks the relay-held wallet balance for the operator
func runRelayBalance() error {
	wallet, err := requireWallet()
	if err != nil {
		return err
	}

	var data relayBalanceResponse
	if err := relayPost("/balance", map[string]any{
		"operatorAddress": wallet,
		"chainId":         baseChainID,
	}, true, &data); err != nil {
		return err
	}
	if !data.Success && data.Error != "" {
		return errors.New(data.Error)
	}

	if jsonMode {
		printJSON(data)
		return nil
	}

	balanceEth, _ := strconv.ParseFloat(data.BalanceEth, 64)
	balanceUsd := balanceEth * 3000 // rough ETH→USD

	canUpload := styleSuccess.Render("Yes")
	if !data.SufficientBalance {
		canUpload = styleError.Render("No — fund with: netlibrary relay fund")
	}
	printFields([]fieldPair{
		{"Your Wallet", wallet},
		{"Backend Wallet", data.BackendWalletAddress},
		{"Balance (ETH)", strconv.FormatFloat(balanceEth, 'f', 6, 64)},
		{"Balance (~USD)", fmt.Sprintf("$%.4f", balanceUsd)},
		{"Can Upload", canUpload},
	})

	if !data.SufficientBalance {
		fmt.Println()
		fmt.Println(styleWarn.Render("Your relay wallet needs funding before you can upload."))
		fmt.Printf("Run: %s (or 0.25, 5.00)\n", styleAccent.Render("netlibrary relay fund 0.10"))
	}
	return nil
}

// runRelayFund tops up the relay-held wallet by one funding tier
func runRelayFund(amount string, txHash string) error {
	amountUsd, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("invalid amount. Choose: %s", fundingTierList())
	}

	wallet, err := requireWallet()
	if err != nil {
		return err
	}

	result, err := ensureFunded(wallet, amountUsd, txHash)
	if err != nil {
		return err
	}

	if result.BackendWalletAddress != "" {
		printSuccess("Relay wallet funded! Backend wallet: " + result.BackendWalletAddress)
	} else if result.TxHash != "" {
		printSuccess("Relay wallet funded!")
	} else {
		printSuccess("Relay wallet already has sufficient balance!")
	}
	if jsonMode {
		printJSON(result)
	}
	return nil
}

// runRelaySession creates (or passes through) a relay session token
func runRelaySession(sessionToken string) error {
	if sessionToken != "" {
		printSuccess("Using provided session token.")
		if jsonMode {
			printJSON(map[string]string{"sessionToken": sessionToken})
		} else {
			fmt.Println(sessionToken)
		}
		return nil
	}

	wallet, err := requireWallet()
	if err != nil {
		return err
	}
	if !jsonMode {
		fmt.Println(styleDim.Render("Creating relay session..."))
	}

	session, err := createSession(sessionOpts{Wallet: wallet})
	if err != nil {
		var manual *manualSignError
		if errors.As(err, &manual) {
			printManualSigningInstructions(manual)
			return errActionDeferred
		}
		return err
	}

	if jsonMode {
		printJSON(session)
		return nil
	}
	printSuccess("Relay session created (valid 1 hour)")
	fmt.Println()
	fmt.Printf("  %s\n", styleAccent.Render(session.SessionToken))
	fmt.Println()
	fmt.Printf("Pass it to upload tooling with %s\n", styleAccent.Render("--session-token <token>"))
	return nil
}

// printManualSigningInstructions shows the typed-data document for
// out-of-process signing
func printManualSigningInstructions(manual *manualSignError) {
	if jsonMode {
		printJSON(map[string]any{
			"signingRequired": true,
			"typedData":       manual.TypedData,
			"expiresAt":       manual.ExpiresAt,
		})
		return
	}
	doc, _ := json.MarshalIndent(manual.TypedData, "", "  ")
	fmt.Println()
	fmt.Println(styleWarn.Render("No signing method available (no PRIVATE_KEY, no cast)."))
	fmt.Println("Sign this EIP-712 typed data with your wallet and create the session manually:")
	fmt.Println()
	fmt.Println(string(doc))
	fmt.Println()
	fmt.Println("Then POST to:", upstreamRelayURL+"/session")
	fmt.Printf("Pass the returned sessionToken with: %s\n", styleAccent.Render("--session-token <token>"))
}

// runRelay dispatches the relay subcommands
func runRelay(args []string) {
	if len(args) == 0 {
		printError("usage: netlibrary relay <balance|fund|session> ...")
		os.Exit(1)
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "balance":
		fs := newFlagSet("relay balance")
		parseFlags(fs, rest)
		runCommand(runRelayBalance)

	case "fund":
		fs := newFlagSet("relay fund")
		txHash := fs.String("tx-hash", "", "USDC payment tx hash (if already paid)")
		parseFlags(fs, rest)
		if fs.NArg() < 1 {
			printError("usage: netlibrary relay fund <amount> (one of " + fundingTierList() + ")")
			os.Exit(1)
		}
		runCommand(func() error { return runRelayFund(fs.Arg(0), *txHash) })

	case "session":
		fs := newFlagSet("relay session")
		sessionToken := fs.String("session-token", "", "Use an existing session token (skip signing)")
		parseFlags(fs, rest)
		runCommand(func() error { return runRelaySession(*sessionToken) })

	default:
		printError(fmt.Sprintf("unknown relay subcommand: %s", sub))
		os.Exit(1)
	}
}
