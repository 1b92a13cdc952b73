package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memberRegistryCSV = `member_id,username,address,fid,signup_platform,ens_subname
1,alice,0xAbC0000000000000000000000000000000000001,100,farcaster,alice.netlib.eth
2,"bob, the builder",0xabc0000000000000000000000000000000000002,200,web,
3,carol,0xABC0000000000000000000000000000000000003,,farcaster,carol.netlib.eth
`

// withCatalogServer points the catalog base URL at a local test server
// rooted at <srv>/api/v1
func withCatalogServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Setenv("NETLIB_BASE_URL", srv.URL+"/api/v1")
	t.Cleanup(srv.Close)
}

func TestResolveItem(t *testing.T) {
	withCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/library", r.URL.Path)
		require.Equal(t, "ck_abc123", r.URL.Query().Get("contentKey"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"title":    "Deep Work",
				"operator": testOperator,
				"uploader": map[string]any{"username": "alice"},
			}},
		})
	})

	ent, err := resolveItem("ck_abc123")
	require.NoError(t, err)
	assert.Equal(t, "Deep Work", ent.Name)
	assert.Equal(t, testOperator, ent.Operator)
	assert.Equal(t, "ck_abc123", ent.StorageKey)
	assert.Equal(t, "alice", ent.Author)
}

func TestResolveItemFieldFallbacks(t *testing.T) {
	withCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"operatorAddress": testOperator}},
		})
	})

	ent, err := resolveItem("ck_bare")
	require.NoError(t, err)
	assert.Equal(t, "ck_bare", ent.Name, "display name falls back to the identifier")
	assert.Equal(t, testOperator, ent.Operator)
}

func TestResolveItemNotFound(t *testing.T) {
	withCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	_, err := resolveItem("ck_doesnotexist")
	var nf *notFoundError
	require.ErrorAs(t, err, &nf)
	assert.ErrorContains(t, err, "ck_doesnotexist")
}

func TestResolveStack(t *testing.T) {
	withCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/stacks", r.URL.Path)
		require.Equal(t, "stk_42", r.URL.Query().Get("id"))
		json.NewEncoder(w).Encode(map[string]any{
			"stacks": []map[string]any{{"name": "Go Reading", "owner": "0x1111111111111111111111111111111111111111"}},
		})
	})

	ent, err := resolveStack("stk_42")
	require.NoError(t, err)
	assert.Equal(t, "Go Reading", ent.Name)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", ent.Operator)
	assert.Equal(t, "stk_42", ent.StorageKey)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", ent.Author, "author falls back to owner address")
}

func TestResolveStackNotFound(t *testing.T) {
	withCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"stacks": []any{}})
	})

	_, err := resolveStack("stk_missing")
	var nf *notFoundError
	require.ErrorAs(t, err, &nf)
}

func TestResolveGridUnsupported(t *testing.T) {
	_, err := resolveGrid("grid_1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "not yet available")
	assert.ErrorContains(t, err, "--tx-hash")
}

func serveMemberRegistry(t *testing.T) {
	withCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/member-registry/csv", r.URL.Path)
		fmt.Fprint(w, memberRegistryCSV)
	})
}

func TestResolveMemberByAddressCaseInsensitive(t *testing.T) {
	serveMemberRegistry(t)

	// Query is upper-cased, the stored address is mixed-case
	ent, err := resolveMember("0XABC0000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "alice", ent.Name)
	assert.Equal(t, "0xAbC0000000000000000000000000000000000001", ent.Operator)
	assert.Equal(t, ent.Operator, ent.StorageKey, "a member's storage key is its address")
}

func TestResolveMemberByIDAndUsername(t *testing.T) {
	serveMemberRegistry(t)

	byID, err := resolveMember("3")
	require.NoError(t, err)
	assert.Equal(t, "carol", byID.Name)

	byName, err := resolveMember("carol")
	require.NoError(t, err)
	assert.Equal(t, byID.Operator, byName.Operator)
}

func TestResolveMemberQuotedFields(t *testing.T) {
	serveMemberRegistry(t)

	ent, err := resolveMember("2")
	require.NoError(t, err)
	assert.Equal(t, "bob, the builder", ent.Name)
}

func TestResolveMemberNotFound(t *testing.T) {
	serveMemberRegistry(t)

	_, err := resolveMember("0xdead000000000000000000000000000000000000")
	var nf *notFoundError
	require.ErrorAs(t, err, &nf)

	_, err = resolveMember("nobody")
	require.ErrorAs(t, err, &nf)
}

func TestParseMemberCSVShortRows(t *testing.T) {
	members, err := parseMemberCSV("member_id,username,address\n1,alice\n")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0]["username"])
	assert.Empty(t, members[0]["address"])
}

func TestResolveEntityDispatch(t *testing.T) {
	serveMemberRegistry(t)

	ent, err := resolveEntity("member", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", ent.Name)

	_, err = resolveEntity("blob", "x")
	assert.ErrorContains(t, err, "unknown entity type")
}
