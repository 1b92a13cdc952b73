package main

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"os/exec"
	"strconv"
)

const (
	upvoteStorageApp  = "0x000000060CEB69D023227DF64CfB75eC37c75B62"
	pureAlphaStrategy = "0x00000001b1bcdeddeafd5296aaf4f3f3e21ae876"
	upvoteCostEth     = 0.000025
)

// upvoteCostWei is the per-upvote price in wei (0.000025 ETH)
var upvoteCostWei = big.NewInt(25_000_000_000_000)

// upvoteOpts carries the shared flags of the upvote subcommands
type upvoteOpts struct {
	Count  int
	TxHash string
	Wallet string
	RPCURL string
}

// requireAuth gates paid actions on a configured API key (membership)
func requireAuth() error {
	if apiKey() == "" {
		return fmt.Errorf("API key required (membership). Run: netlibrary config set apiKey <key>")
	}
	return nil
}

// formatEthCost renders an upvote cost in ETH for display
func formatEthCost(count int) string {
	return strconv.FormatFloat(upvoteCostEth*float64(count), 'f', 6, 64)
}

// totalCostWei returns the exact transaction value for count upvotes
func totalCostWei(count int) *big.Int {
	return new(big.Int).Mul(upvoteCostWei, big.NewInt(int64(count)))
}

// sendUpvoteTx submits the upvote contract call via cast, or prints the
// exact call shape as manual instructions when cast is unavailable
// (returning errActionDeferred). A caller-supplied hash short-circuits
// submission.
func sendUpvoteTx(operatorAddress, storageKeyBytes32 string, count int, opts upvoteOpts) (string, error) {
	if opts.TxHash != "" {
		return opts.TxHash, nil
	}

	castPath, err := exec.LookPath("cast")
	if err != nil {
		printUpvoteInstructions(operatorAddress, storageKeyBytes32, count)
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

	if !confirm(fmt.Sprintf("Upvote %dx for %s ETH (you receive $ALPHA in return). Proceed?", count, formatEthCost(count))) {
		fmt.Println("Cancelled.")
		return "", errActionDeferred
	}

	if !jsonMode {
		fmt.Println(styleDim.Render(fmt.Sprintf("Sending upvote tx (%s ETH → $ALPHA)...", formatEthCost(count))))
	}

	args := []string{
		upvoteStorageApp,
		"upvote(address,address,bytes32,uint256,bytes)",
		pureAlphaStrategy,
		operatorAddress,
		"0x" + storageKeyBytes32,
		strconv.Itoa(count),
		"0x",
		"--value", totalCostWei(count).String(),
		"--rpc-url", rpc,
		"--json",
	}
	args = append(args, signerArgs(wallet)...)

	txHash, err := runCastSend(castPath, args)
	if err != nil {
		return "", fmt.Errorf("upvote tx failed: %w", err)
	}
	if !jsonMode {
		fmt.Println(styleSuccess.Render("✓"), "Upvote sent:", txHash)
		fmt.Println(styleDim.Render("  You received $ALPHA tokens. Net is $ALPHA."))
	}
	return txHash, nil
}

// printUpvoteInstructions emits the exact on-chain call shape for manual
// submission
func printUpvoteInstructions(operatorAddress, storageKeyBytes32 string, count int) {
	if jsonMode {
		printJSON(map[string]any{
			"manualTxRequired": true,
			"contract":         upvoteStorageApp,
			"function":         "upvote(address,address,bytes32,uint256,bytes)",
			"args": []string{
				pureAlphaStrategy,
				operatorAddress,
				"0x" + storageKeyBytes32,
				strconv.Itoa(count),
				"0x",
			},
			"valueWei": totalCostWei(count).String(),
			"chainId":  baseChainID,
		})
		return
	}
	fmt.Println()
	fmt.Println(styleWarn.Render("Send this transaction on Base to upvote:"))
	fmt.Println()
	fmt.Printf("  Contract: %s\n", styleAccent.Render(upvoteStorageApp))
	fmt.Printf("  Function: %s\n", styleAccent.Render("upvote(address,address,bytes32,uint256,bytes)"))
	fmt.Println("  Args:")
	fmt.Printf("    strategy:  %s\n", pureAlphaStrategy)
	fmt.Printf("    operator:  %s\n", operatorAddress)
	fmt.Printf("    key:       0x%s\n", storageKeyBytes32)
	fmt.Printf("    count:     %d\n", count)
	fmt.Println("    context:   0x")
	fmt.Printf("  Value:    %s\n", styleSuccess.Render(formatEthCost(count)+" ETH"))
	fmt.Printf("  Chain:    Base (%d)\n", baseChainID)
	fmt.Println()
	fmt.Printf("After sending, re-run with %s\n", styleAccent.Render("--tx-hash <hash>"))
}

// doUpvote is the common upvote flow: authenticate, resolve, price,
// derive the key, submit (or defer), report
func doUpvote(entityType, identifier string, opts upvoteOpts) error {
	if err := requireAuth(); err != nil {
		return err
	}
	if opts.Count < 1 {
		opts.Count = 1
	}

	ent, err := resolveEntity(entityType, identifier)
	if err != nil {
		return err
	}
	if ent.Operator == "" {
		return fmt.Errorf("could not resolve operator address for this %s", entityType)
	}

	if !jsonMode {
		plural := ""
		if opts.Count > 1 {
			plural = "s"
		}
		fmt.Println()
		fmt.Printf("  %s: %s\n", styleAccent.Render(titleCase(entityType)), ent.Name)
		fmt.Printf("  By: %s\n", displayOrDash(ent.Author))
		fmt.Printf("  Cost: %s (%d upvote%s)\n", styleSuccess.Render(formatEthCost(opts.Count)+" ETH"), opts.Count, plural)
		fmt.Printf("  You receive: %s tokens\n", styleSuccess.Render("$ALPHA"))
		fmt.Println()
	}

	storageKeyBytes32 := toBytes32(ent.StorageKey)
	txHash, err := sendUpvoteTx(ent.Operator, storageKeyBytes32, opts.Count, opts)
	if err != nil {
		return err
	}

	if jsonMode {
		printJSON(map[string]any{
			"success":  true,
			"type":     entityType,
			"id":       identifier,
			"name":     ent.Name,
			"operator": ent.Operator,
			"count":    opts.Count,
			"costEth":  formatEthCost(opts.Count),
			"txHash":   txHash,
			"reward":   "$ALPHA",
		})
	}
	return nil
}

// upvoteCountsResponse is the indexer's batch count lookup response
type upvoteCountsResponse struct {
	Success     bool     `json:"success"`
	Counts      []int    `json:"counts"`
	ContentKeys []string `json:"contentKeys"`
}

// countEntry pairs a resolved entity with its derived score key
type countEntry struct {
	ID         string
	Name       string
	ScoreKey   string
	ContentKey string
}

// fetchUpvoteCounts queries the indexer for per-entity vote counts, keyed
// back by content key
func fetchUpvoteCounts(entries []countEntry) (map[string]int, error) {
	scoreKeys := make([]string, len(entries))
	contentKeys := make([]string, len(entries))
	for i, e := range entries {
		scoreKeys[i] = e.ScoreKey
		contentKeys[i] = e.ContentKey
	}

	var data upvoteCountsResponse
	if err := apiPostRoot("/upvotes", map[string]any{
		"scoreKeys":   scoreKeys,
		"contentKeys": contentKeys,
	}, false, &data); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	keys := data.ContentKeys
	if len(keys) == 0 {
		keys = contentKeys
	}
	for i, k := range keys {
		if i < len(data.Counts) {
			counts[k] = data.Counts[i]
		}
	}
	return counts, nil
}

// singularType maps the plural counts/top type word to a resolver type
func singularType(plural string) (string, bool) {
	switch plural {
	case "items":
		return "item", true
	case "stacks":
		return "stack", true
	case "grids":
		return "grid", true
	case "members":
		return "member", true
	}
	return "", false
}

// runUpvoteCounts resolves each identifier, derives score keys, and
// renders the indexer's counts
func runUpvoteCounts(entityType string, ids []string) error {
	singular, ok := singularType(entityType)
	if !ok {
		return fmt.Errorf("invalid type. Choose: items, stacks, grids, members")
	}

	entries := make([]countEntry, 0, len(ids))
	for _, id := range ids {
		ent, err := resolveEntity(singular, id)
		if err != nil {
			printWarn(fmt.Sprintf("Could not resolve %s: %v", id, err))
			continue
		}
		entries = append(entries, countEntry{
			ID:         id,
			Name:       ent.Name,
			ScoreKey:   deriveScoreKey(ent.StorageKey, ent.Operator),
			ContentKey: ent.StorageKey,
		})
	}
	if len(entries) == 0 {
		return fmt.Errorf("no valid entities found")
	}

	counts, err := fetchUpvoteCounts(entries)
	if err != nil {
		return err
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{shortenHex(e.ID, 10, 6), e.Name, strconv.Itoa(counts[e.ContentKey])}
	}
	printTable([]string{"ID", "Name", "▲ Upvotes"}, rows)
	return nil
}

// runUpvoteTop renders the most upvoted catalog entries
func runUpvoteTop(entityType string, limit int) error {
	switch entityType {
	case "items":
		var data libraryResponse
		query := url.Values{"sortBy": {"upvotes"}, "limit": {strconv.Itoa(limit)}}
		if err := apiGet("/library", query, false, &data); err != nil {
			return err
		}
		items := data.Items
		if len(items) == 0 {
			items = data.Results
		}
		rows := make([][]string, len(items))
		for i, item := range items {
			name := item.Title
			if name == "" {
				name = item.Name
			}
			author := item.Author
			if author == "" {
				author = item.UploaderUsername
			}
			rows[i] = []string{strconv.Itoa(i + 1), displayOrDash(name), displayOrDash(author), strconv.Itoa(item.Upvotes)}
		}
		if !jsonMode {
			fmt.Printf("\nTop %s by upvotes:\n", entityType)
		}
		printTable([]string{"#", "Name", "Author/Owner", "▲ Upvotes"}, rows)
	case "stacks":
		var data stacksResponse
		query := url.Values{"sortBy": {"upvotes"}, "limit": {strconv.Itoa(limit)}}
		if err := apiGet("/stacks", query, false, &data); err != nil {
			return err
		}
		rows := make([][]string, len(data.Stacks))
		for i, s := range data.Stacks {
			owner := s.OwnerUsername
			if owner == "" {
				owner = s.Owner
			}
			rows[i] = []string{strconv.Itoa(i + 1), displayOrDash(s.Name), displayOrDash(owner), strconv.Itoa(s.Upvotes)}
		}
		if !jsonMode {
			fmt.Printf("\nTop %s by upvotes:\n", entityType)
		}
		printTable([]string{"#", "Name", "Author/Owner", "▲ Upvotes"}, rows)
	case "grids":
		printWarn("Grid ranking not yet available via API. Use the web app to discover grids.")
	case "members":
		printWarn("Member ranking by upvotes not yet available via API. Use \"netlibrary upvote counts members <address>\" to check specific members.")
	default:
		return fmt.Errorf("invalid type. Choose: items, stacks, grids, members")
	}
	return nil
}

// runUpvote dispatches the upvote subcommands
func runUpvote(args []string) {
	if len(args) == 0 {
		printError("usage: netlibrary upvote <item|stack|grid|member|counts|top> ...")
		os.Exit(1)
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "item", "stack", "grid", "member":
		fs := newFlagSet("upvote " + sub)
		var opts upvoteOpts
		fs.IntVarP(&opts.Count, "count", "n", 1, "Number of upvotes")
		fs.StringVar(&opts.TxHash, "tx-hash", "", "Pre-sent tx hash")
		fs.StringVar(&opts.Wallet, "wallet", "", "Override wallet")
		fs.StringVar(&opts.RPCURL, "rpc-url", "", "Override RPC URL")
		parseFlags(fs, rest)
		if fs.NArg() < 1 {
			printError(fmt.Sprintf("usage: netlibrary upvote %s <identifier>", sub))
			os.Exit(1)
		}
		runCommand(func() error { return doUpvote(sub, fs.Arg(0), opts) })

	case "counts":
		fs := newFlagSet("upvote counts")
		parseFlags(fs, rest)
		if fs.NArg() < 2 {
			printError("usage: netlibrary upvote counts <type> <ids...>")
			os.Exit(1)
		}
		runCommand(func() error { return runUpvoteCounts(fs.Arg(0), fs.Args()[1:]) })

	case "top":
		fs := newFlagSet("upvote top")
		entityType := fs.StringP("type", "t", "items", "Entity type: items, stacks, grids, members")
		limit := fs.IntP("limit", "l", 10, "Max results")
		parseFlags(fs, rest)
		runCommand(func() error { return runUpvoteTop(*entityType, *limit) })

	default:
		printError(fmt.Sprintf("unknown upvote subcommand: %s", sub))
		os.Exit(1)
	}
}
