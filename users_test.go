package dropbox

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersAPI_GetCurrentAccount(t *testing.T) {
	c := newTestClient(t, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/get_current_account", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "null", string(body), "argument-less call sends a null body")

		writeJSON(w, http.StatusOK, `{
			"account_id": "dbid:abc",
			"name": {
				"given_name": "Alice",
				"surname": "Liddell",
				"familiar_name": "Alice",
				"display_name": "Alice Liddell",
				"abbreviated_name": "AL"
			},
			"email": "alice@example.com",
			"email_verified": true,
			"locale": "en",
			"account_type": {".tag": "pro"},
			"root_info": {".tag": "user", "root_namespace_id": "123", "home_namespace_id": "123"}
		}`)
	}))

	acct, err := c.Users.GetCurrentAccount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "dbid:abc", acct.AccountID)
	assert.Equal(t, "Alice Liddell", acct.Name.DisplayName)
	assert.True(t, acct.EmailVerified)
	assert.Equal(t, "pro", acct.AccountType.Tag)
	require.NotNil(t, acct.RootInfo)
	assert.Equal(t, "123", acct.RootInfo.RootNamespaceID)
}

func TestUsersAPI_GetAccount(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/users/get_account",
		`{"account_id": "dbid:other"}`,
		`{
			"account_id": "dbid:other",
			"name": {"display_name": "Bob"},
			"email": "bob@example.com",
			"is_teammate": true
		}`))

	acct, err := c.Users.GetAccount(context.Background(), "dbid:other")
	require.NoError(t, err)
	assert.Equal(t, "Bob", acct.Name.DisplayName)
	assert.True(t, acct.IsTeammate)
}

func TestUsersAPI_GetSpaceUsage(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/users/get_space_usage",
		"null",
		`{"used": 314159265, "allocation": {".tag": "individual", "allocated": 2147483648}}`))

	usage, err := c.Users.GetSpaceUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(314159265), usage.Used)
	assert.Equal(t, "individual", usage.Allocation.Tag)
	assert.Equal(t, uint64(2147483648), usage.Allocation.Allocated)
}
