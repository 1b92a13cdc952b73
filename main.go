package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const version = "1.4.1"

// newFlagSet creates a subcommand flag set carrying the global flags
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.BoolVar(&jsonMode, "json", jsonMode, "Output raw JSON (for programmatic/agent use)")
	fs.StringVar(&flagAPIKey, "api-key", flagAPIKey, "Override API key")
	fs.StringVar(&flagBaseURL, "base-url", flagBaseURL, "Override base URL")
	return fs
}

// parseFlags parses subcommand arguments, exiting on malformed flags
func parseFlags(fs *pflag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

// runCommand executes a command body and maps its error to the process
// exit code. A deferred action (manual instructions emitted, prompt
// declined) is a success exit.
func runCommand(fn func() error) {
	if err := fn(); err != nil {
		if errors.Is(err, errActionDeferred) {
			os.Exit(0)
		}
		printError(err.Error())
		os.Exit(1)
	}
}

// printUsage prints CLI usage information
func printUsage() {
	fmt.Println(`
Usage: netlibrary [--json] [--api-key <key>] [--base-url <url>] <command> [options]

Net Library CLI — interact with the decentralized digital library on Base.

Commands:
  config set <key> <value>              Set a config value (apiKey, baseUrl, wallet, rpcUrl, adminKey)
  config get <key>                      Get a config value
  config show                           Show all config values

  relay balance                         Check relay backend wallet balance
  relay fund <amount> [--tx-hash <h>]   Fund relay wallet with USDC ($0.10, $0.25, or $5.00)
  relay session [--session-token <t>]   Create a relay session token (valid 1 hour)

  upvote item <contentKey>              Upvote a library item (costs ETH, you receive $ALPHA)
  upvote stack <stackId>                Upvote a stack
  upvote grid <gridId>                  Upvote a grid (requires --tx-hash)
  upvote member <identifier>            Upvote a member profile (address or member ID)
  upvote counts <type> <ids...>         Check upvote counts (items, stacks, grids, members)
  upvote top [-t type] [-l limit]       Show most upvoted content

  member status                         Check membership status and available purchases
  member join                           Purchase membership ($2 USDC)
  member buy <type>                     Purchase: storage-pass ($20), stack-unlock ($5), grid-unlock ($2)
  member list [-l limit] [-s sort]      List all library members
  member csv [-o file]                  Download member registry as CSV

Options for upvote item/stack/grid/member:
  -n, --count <n>                       Number of upvotes (default: 1)
  --tx-hash <hash>                      Pre-sent tx hash (skip local submission)
  --wallet <addr>                       Override wallet
  --rpc-url <url>                       Override RPC URL

Environment variables:
  NETLIB_API_KEY                        API key (overrides config file)
  NETLIB_BASE_URL                       Catalog base URL
  NETLIB_WALLET                         Operator wallet address
  BASE_RPC_URL                          Base chain RPC URL
  PRIVATE_KEY                           Signing key for sessions and transactions

Examples:
  netlibrary config set wallet 0xYourAddress
  netlibrary relay balance
  netlibrary relay fund 0.10
  netlibrary upvote item ck_abc123 -n 3
  netlibrary upvote counts items ck_abc123 ck_def456
  netlibrary member join --tx-hash 0x...`)
}

// stripGlobalFlags consumes leading global flags, in both the
// space-separated and --flag=value spellings, so they may appear before
// the command word as well as after it
func stripGlobalFlags(args []string) []string {
	for len(args) > 0 {
		arg := args[0]
		switch {
		case arg == "--json":
			jsonMode = true
			args = args[1:]
		case arg == "--api-key":
			if len(args) < 2 {
				printError("--api-key requires a value")
				os.Exit(1)
			}
			flagAPIKey = args[1]
			args = args[2:]
		case strings.HasPrefix(arg, "--api-key="):
			flagAPIKey = strings.TrimPrefix(arg, "--api-key=")
			args = args[1:]
		case arg == "--base-url":
			if len(args) < 2 {
				printError("--base-url requires a value")
				os.Exit(1)
			}
			flagBaseURL = args[1]
			args = args[2:]
		case strings.HasPrefix(arg, "--base-url="):
			flagBaseURL = strings.TrimPrefix(arg, "--base-url=")
			args = args[1:]
		default:
			return args
		}
	}
	return args
}

func main() {
	args := stripGlobalFlags(os.Args[1:])
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "config":
		runConfig(commandArgs)
	case "relay":
		runRelay(commandArgs)
	case "upvote":
		runUpvote(commandArgs)
	case "member":
		runMember(commandArgs)
	case "version", "--version", "-V":
		fmt.Println("netlibrary", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}
