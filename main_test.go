package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetGlobalFlags(t *testing.T) {
	t.Helper()
	savedJSON, savedKey, savedURL := jsonMode, flagAPIKey, flagBaseURL
	t.Cleanup(func() {
		jsonMode, flagAPIKey, flagBaseURL = savedJSON, savedKey, savedURL
	})
	jsonMode, flagAPIKey, flagBaseURL = false, "", ""
}

func TestStripGlobalFlagsSpaceSeparated(t *testing.T) {
	resetGlobalFlags(t)

	rest := stripGlobalFlags([]string{"--json", "--api-key", "sk_1", "--base-url", "https://x/api/v1", "relay", "balance"})
	assert.Equal(t, []string{"relay", "balance"}, rest)
	assert.True(t, jsonMode)
	assert.Equal(t, "sk_1", flagAPIKey)
	assert.Equal(t, "https://x/api/v1", flagBaseURL)
}

func TestStripGlobalFlagsEqualsForm(t *testing.T) {
	resetGlobalFlags(t)

	rest := stripGlobalFlags([]string{"--api-key=sk_2", "--base-url=https://y/api/v1", "member", "list"})
	assert.Equal(t, []string{"member", "list"}, rest)
	assert.Equal(t, "sk_2", flagAPIKey)
	assert.Equal(t, "https://y/api/v1", flagBaseURL)
	assert.False(t, jsonMode)
}

func TestStripGlobalFlagsStopsAtCommandWord(t *testing.T) {
	resetGlobalFlags(t)

	// Flags after the command word are left for the subcommand parser
	rest := stripGlobalFlags([]string{"upvote", "--json", "item", "ck_1"})
	assert.Equal(t, []string{"upvote", "--json", "item", "ck_1"}, rest)
	assert.False(t, jsonMode)
}
