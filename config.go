package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultBaseURL = "https://miniapp-generator-fid-282520-251210015136529.neynar.app/api/v1"
	defaultRPCURL  = "https://base-mainnet.public.blastapi.io"
)

// Flag-level overrides set by the global --api-key / --base-url flags.
// They take precedence over environment variables and the config file.
var (
	flagAPIKey  string
	flagBaseURL string
)

// Config holds the persisted CLI configuration
type Config struct {
	APIKey   string `json:"apiKey,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
	Wallet   string `json:"wallet,omitempty"`
	RPCURL   string `json:"rpcUrl,omitempty"`
	AdminKey string `json:"adminKey,omitempty"`
}

// validConfigKeys lists the keys accepted by "config set"
var validConfigKeys = []string{"apiKey", "baseUrl", "wallet", "rpcUrl", "adminKey"}

// configFile returns the path of the config file
func configFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "netlibrary", "config.json")
}

// loadConfig reads the config file and applies defaults.
// A missing or unreadable file yields the defaults.
func loadConfig() Config {
	cfg := Config{BaseURL: defaultBaseURL, RPCURL: defaultRPCURL}

	raw, err := os.ReadFile(configFile())
	if err != nil {
		return cfg
	}

	var stored Config
	if err := json.Unmarshal(raw, &stored); err != nil {
		return cfg
	}

	if stored.APIKey != "" {
		cfg.APIKey = stored.APIKey
	}
	if stored.BaseURL != "" {
		cfg.BaseURL = stored.BaseURL
	}
	if stored.Wallet != "" {
		cfg.Wallet = stored.Wallet
	}
	if stored.RPCURL != "" {
		cfg.RPCURL = stored.RPCURL
	}
	if stored.AdminKey != "" {
		cfg.AdminKey = stored.AdminKey
	}
	return cfg
}

// saveConfig writes the config file, creating the directory if needed
func saveConfig(cfg Config) error {
	path := configFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// configGet returns a single config value by key
func configGet(key string) string {
	cfg := loadConfig()
	switch key {
	case "apiKey":
		return cfg.APIKey
	case "baseUrl":
		return cfg.BaseURL
	case "wallet":
		return cfg.Wallet
	case "rpcUrl":
		return cfg.RPCURL
	case "adminKey":
		return cfg.AdminKey
	}
	return ""
}

// configSet updates a single config value and persists the file
func configSet(key, value string) error {
	cfg := loadConfig()
	switch key {
	case "apiKey":
		cfg.APIKey = value
	case "baseUrl":
		cfg.BaseURL = value
	case "wallet":
		cfg.Wallet = value
	case "rpcUrl":
		cfg.RPCURL = value
	case "adminKey":
		cfg.AdminKey = value
	default:
		return fmt.Errorf("invalid config key: %s", key)
	}
	return saveConfig(cfg)
}

// apiKey returns the effective API key (flag > env > config file)
func apiKey() string {
	if flagAPIKey != "" {
		return flagAPIKey
	}
	if v := os.Getenv("NETLIB_API_KEY"); v != "" {
		return v
	}
	return loadConfig().APIKey
}

// baseURL returns the effective catalog base URL (flag > env > config file)
func baseURL() string {
	if flagBaseURL != "" {
		return flagBaseURL
	}
	if v := os.Getenv("NETLIB_BASE_URL"); v != "" {
		return v
	}
	return loadConfig().BaseURL
}

// walletAddr returns the configured operator wallet address, if any
func walletAddr() string {
	if v := os.Getenv("NETLIB_WALLET"); v != "" {
		return v
	}
	return loadConfig().Wallet
}

// requireWallet returns the operator wallet address or an error telling
// the user how to configure one
func requireWallet() (string, error) {
	wallet := walletAddr()
	if wallet == "" {
		return "", fmt.Errorf("no wallet configured. Run: netlibrary config set wallet <address>")
	}
	return wallet, nil
}

// rpcURL returns the effective chain RPC URL
func rpcURL() string {
	if v := os.Getenv("BASE_RPC_URL"); v != "" {
		return v
	}
	return loadConfig().RPCURL
}
