package main

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// purchasePrices are the fixed USD prices of membership purchases
var purchasePrices = map[string]float64{
	"membership":   2,
	"storage-pass": 20,
	"stack-unlock": 5,
	"grid-unlock":  2,
}

// membershipStatus is the catalog's membership report
type membershipStatus struct {
	IsMember                bool   `json:"isMember"`
	MemberID                string `json:"memberId"`
	ENSSubname              string `json:"ensSubname"`
	JoinedAt                string `json:"joinedAt"`
	HasUnlimitedStoragePass bool   `json:"hasUnlimitedStoragePass"`
	HasStackPass            bool   `json:"hasStackPass"`
	HasGridPass             bool   `json:"hasGridPass"`
	AvailablePurchases      []struct {
		Type         string `json:"type"`
		PriceDisplay string `json:"priceDisplay"`
		Description  string `json:"description"`
		Available    bool   `json:"available"`
		Reason       string `json:"reason"`
	} `json:"availablePurchases"`
}

// purchaseResponse is returned by membership purchase calls
type purchaseResponse struct {
	MemberID   string `json:"memberId"`
	ENSSubname string `json:"ensSubname"`
}

// runMemberStatus shows membership state and available purchases
func runMemberStatus() error {
	var data membershipStatus
	if err := apiGet("/agents/membership", nil, true, &data); err != nil {
		return err
	}
	if jsonMode {
		printJSON(data)
		return nil
	}

	if data.IsMember {
		yesNo := func(v bool) string {
			if v {
				return styleSuccess.Render("Yes")
			}
			return "No"
		}
		joined := ""
		if t, err := time.Parse(time.RFC3339, data.JoinedAt); err == nil {
			joined = t.Format("2006-01-02")
		}
		printFields([]fieldPair{
			{"Status", styleSuccess.Render("Member")},
			{"Member ID", data.MemberID},
			{"ENS", data.ENSSubname},
			{"Joined", joined},
			{"Storage Pass", yesNo(data.HasUnlimitedStoragePass)},
			{"Stack Pass", yesNo(data.HasStackPass)},
			{"Grid Pass", yesNo(data.HasGridPass)},
		})
	} else {
		fmt.Println(styleWarn.Render("Not a member."))
		fmt.Printf("\nJoin with: %s\n", styleAccent.Render("netlibrary member join"))
	}

	if len(data.AvailablePurchases) > 0 {
		fmt.Println("\nAvailable purchases:")
		rows := make([][]string, len(data.AvailablePurchases))
		for i, p := range data.AvailablePurchases {
			availability := styleSuccess.Render("Yes")
			if !p.Available {
				availability = styleDim.Render(displayOrDefault(p.Reason, "No"))
			}
			rows[i] = []string{p.Type, p.PriceDisplay, p.Description, availability}
		}
		printTable([]string{"Type", "Price", "Description", "Available"}, rows)
	}
	return nil
}

// purchaseOpts carries the shared flags of join/buy
type purchaseOpts struct {
	TxHash     string
	StackID    string
	AdminGrant bool
	Target     string
}

// runMemberPurchase performs a membership or pass purchase: pay (or reuse
// a pre-sent payment), then register the purchase with the catalog
func runMemberPurchase(purchaseType string, opts purchaseOpts) error {
	price, ok := purchasePrices[purchaseType]
	if !ok {
		return fmt.Errorf("invalid type. Choose: storage-pass, stack-unlock, grid-unlock")
	}
	if purchaseType == "stack-unlock" && opts.StackID == "" {
		return fmt.Errorf("--stack-id is required for stack-unlock")
	}

	body := map[string]any{"purchaseType": purchaseType}
	if opts.StackID != "" {
		body["stackId"] = opts.StackID
	}

	if opts.AdminGrant {
		body["adminGrant"] = true
		if opts.Target != "" {
			body["targetAgentId"] = opts.Target
		}
	} else {
		txHash, err := handlePayment(price, paymentOpts{TxHash: opts.TxHash})
		if err != nil {
			return err
		}
		body["txHash"] = txHash
	}

	var data purchaseResponse
	if err := apiPost("/agents/membership", body, true, &data); err != nil {
		return err
	}

	if purchaseType == "membership" {
		printSuccess(fmt.Sprintf("Membership activated! Member #%s (%s)", data.MemberID, data.ENSSubname))
	} else {
		printSuccess(purchaseType + " purchased!")
	}
	if jsonMode {
		printJSON(data)
	}
	return nil
}

// runMemberList renders the member registry snapshot
func runMemberList(limit int, sortBy string) error {
	members, err := fetchMemberRegistry()
	if err != nil {
		return err
	}

	switch sortBy {
	case "newest":
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	case "platform":
		sort.SliceStable(members, func(i, j int) bool {
			return members[i]["signup_platform"] < members[j]["signup_platform"]
		})
	}

	display := members
	if limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	if jsonMode {
		printJSON(map[string]any{"members": display, "total": len(members)})
		return nil
	}

	rows := make([][]string, len(display))
	for i, m := range display {
		rows[i] = []string{
			m["member_id"],
			displayOrDash(m["username"]),
			shortenHex(m["address"], 8, 4),
			displayOrDash(m["fid"]),
			displayOrDefault(m["signup_platform"], "farcaster"),
			displayOrDash(m["ens_subname"]),
		}
	}
	printTable([]string{"#", "Username", "Address", "FID", "Platform", "ENS"}, rows)
	fmt.Println(styleDim.Render(fmt.Sprintf("\n%d members total", len(members))))
	return nil
}

// runMemberCSV downloads the raw registry CSV
func runMemberCSV(outputFile string) error {
	csvText, err := apiGetRaw("/member-registry/csv", false, true)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(csvText), 0644); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		printSuccess("CSV saved to " + outputFile)
		return nil
	}

	if jsonMode {
		members, err := parseMemberCSV(csvText)
		if err != nil {
			return err
		}
		printJSON(map[string]any{"members": members, "total": len(members)})
		return nil
	}
	fmt.Print(csvText)
	return nil
}

// runMember dispatches the member subcommands
func runMember(args []string) {
	if len(args) == 0 {
		printError("usage: netlibrary member <status|join|buy|list|csv> ...")
		os.Exit(1)
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "status":
		fs := newFlagSet("member status")
		parseFlags(fs, rest)
		runCommand(runMemberStatus)

	case "join":
		fs := newFlagSet("member join")
		var opts purchaseOpts
		fs.StringVar(&opts.TxHash, "tx-hash", "", "Payment tx hash (if already paid)")
		fs.BoolVar(&opts.AdminGrant, "admin-grant", false, "Grant without payment (admin only)")
		fs.StringVar(&opts.Target, "target", "", "Target agent for admin grant")
		parseFlags(fs, rest)
		runCommand(func() error { return runMemberPurchase("membership", opts) })

	case "buy":
		fs := newFlagSet("member buy")
		var opts purchaseOpts
		fs.StringVar(&opts.TxHash, "tx-hash", "", "Payment tx hash (if already paid)")
		fs.StringVar(&opts.StackID, "stack-id", "", "Stack ID (required for stack-unlock)")
		fs.BoolVar(&opts.AdminGrant, "admin-grant", false, "Grant without payment (admin only)")
		fs.StringVar(&opts.Target, "target", "", "Target agent for admin grant")
		parseFlags(fs, rest)
		if fs.NArg() < 1 {
			printError("usage: netlibrary member buy <storage-pass|stack-unlock|grid-unlock>")
			os.Exit(1)
		}
		purchaseType := fs.Arg(0)
		if purchaseType == "membership" {
			printError("invalid type. Choose: storage-pass, stack-unlock, grid-unlock")
			os.Exit(1)
		}
		runCommand(func() error { return runMemberPurchase(purchaseType, opts) })

	case "list":
		fs := newFlagSet("member list")
		limit := fs.IntP("limit", "l", 0, "Max members to show")
		sortBy := fs.StringP("sort", "s", "id", "Sort: id, newest, platform")
		parseFlags(fs, rest)
		runCommand(func() error { return runMemberList(*limit, *sortBy) })

	case "csv":
		fs := newFlagSet("member csv")
		outputFile := fs.StringP("output", "o", "", "Save to file (default: print to stdout)")
		parseFlags(fs, rest)
		runCommand(func() error { return runMemberCSV(*outputFile) })

	default:
		printError(fmt.Sprintf("unknown member subcommand: %s", sub))
		os.Exit(1)
	}
}

// displayOrDash substitutes a dash for empty values in tables
func displayOrDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// displayOrDefault substitutes a default for empty values
func displayOrDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// titleCase upper-cases the first byte of an ASCII word
func titleCase(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
