package main

import (
	"fmt"
	"os"
	"strings"
)

// configKeyAliases maps kebab-case flag spellings to config keys
var configKeyAliases = map[string]string{
	"api-key":   "apiKey",
	"base-url":  "baseUrl",
	"rpc-url":   "rpcUrl",
	"admin-key": "adminKey",
	"wallet":    "wallet",
}

// resolveConfigKey accepts kebab-case or camelCase key names
func resolveConfigKey(key string) string {
	if resolved, ok := configKeyAliases[key]; ok {
		return resolved
	}
	return key
}

// isValidConfigKey reports whether the key can be read or written
func isValidConfigKey(key string) bool {
	for _, k := range validConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}

// maskSecret shortens secrets for display
func maskSecret(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8] + "..."
}

// runConfig dispatches the config subcommands
func runConfig(args []string) {
	if len(args) == 0 {
		printError("usage: netlibrary config <set|get|show> ...")
		os.Exit(1)
	}

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "set":
		fs := newFlagSet("config set")
		parseFlags(fs, rest)
		if fs.NArg() < 2 {
			printError("usage: netlibrary config set <key> <value>")
			os.Exit(1)
		}
		key := resolveConfigKey(fs.Arg(0))
		value := fs.Arg(1)
		if !isValidConfigKey(key) {
			printError(fmt.Sprintf("invalid key %q. Valid keys: %s", fs.Arg(0), strings.Join(validConfigKeys, ", ")))
			os.Exit(1)
		}
		if err := configSet(key, value); err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		display := value
		if key == "apiKey" || key == "adminKey" {
			display = maskSecret(value)
		}
		printSuccess(fmt.Sprintf("Set %s = %s", key, display))

	case "get":
		fs := newFlagSet("config get")
		parseFlags(fs, rest)
		if fs.NArg() < 1 {
			printError("usage: netlibrary config get <key>")
			os.Exit(1)
		}
		key := resolveConfigKey(fs.Arg(0))
		value := configGet(key)
		if jsonMode {
			printJSON(map[string]any{key: valueOrNil(value)})
			return
		}
		if value == "" {
			fmt.Println(styleDim.Render("(not set)"))
		} else {
			fmt.Println(value)
		}

	case "show":
		fs := newFlagSet("config show")
		parseFlags(fs, rest)
		cfg := loadConfig()
		if jsonMode {
			printJSON(cfg)
			return
		}
		printFields([]fieldPair{
			{"API Key", maskSecret(cfg.APIKey)},
			{"Base URL", cfg.BaseURL},
			{"Wallet", cfg.Wallet},
			{"RPC URL", cfg.RPCURL},
			{"Admin Key", maskSecret(cfg.AdminKey)},
		})
		fmt.Println(styleDim.Render("\nConfig file: " + configFile()))

	default:
		printError(fmt.Sprintf("unknown config subcommand: %s", sub))
		os.Exit(1)
	}
}

// valueOrNil maps empty strings to JSON null
func valueOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
