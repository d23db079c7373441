package dropbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharingAPI_CreateSharedLink(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/sharing/create_shared_link_with_settings",
		`{"path": "/report.pdf", "settings": {"requested_visibility": "public"}}`,
		`{
			".tag": "file",
			"url": "https://www.dropbox.com/s/abc/report.pdf?dl=0",
			"name": "report.pdf",
			"id": "id:123",
			"link_permissions": {"can_revoke": true, "resolved_visibility": {".tag": "public"}}
		}`))

	link, err := c.Sharing.CreateSharedLink(context.Background(), "report.pdf", &SharedLinkSettings{
		RequestedVisibility: "public",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://www.dropbox.com/s/abc/report.pdf?dl=0", link.URL)
	assert.True(t, link.LinkPermissions.CanRevoke)
	require.NotNil(t, link.LinkPermissions.ResolvedVisibility)
	assert.Equal(t, "public", link.LinkPermissions.ResolvedVisibility.Tag)
}

func TestSharingAPI_CreateSharedLink_DefaultSettings(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/sharing/create_shared_link_with_settings",
		`{"path": "/report.pdf"}`,
		`{"url": "https://www.dropbox.com/s/abc", "name": "report.pdf"}`))

	_, err := c.Sharing.CreateSharedLink(context.Background(), "/report.pdf", nil)
	require.NoError(t, err)
}

func TestSharingAPI_ListSharedLinks(t *testing.T) {
	t.Run("for one path", func(t *testing.T) {
		c := newTestClient(t, nil, rpcHandler(t,
			"/sharing/list_shared_links",
			`{"path": "/report.pdf"}`,
			`{"links": [{"url": "https://www.dropbox.com/s/abc", "name": "report.pdf"}], "has_more": false}`))

		res, err := c.Sharing.ListSharedLinks(context.Background(), "report.pdf")
		require.NoError(t, err)
		require.Len(t, res.Links, 1)
		assert.Equal(t, "report.pdf", res.Links[0].Name)
	})

	t.Run("whole account", func(t *testing.T) {
		c := newTestClient(t, nil, rpcHandler(t,
			"/sharing/list_shared_links",
			`{}`,
			`{"links": [], "has_more": false}`))

		_, err := c.Sharing.ListSharedLinks(context.Background(), "")
		require.NoError(t, err)
	})

	t.Run("continue", func(t *testing.T) {
		c := newTestClient(t, nil, rpcHandler(t,
			"/sharing/list_shared_links",
			`{"cursor": "cur-1"}`,
			`{"links": [], "has_more": false}`))

		_, err := c.Sharing.ListSharedLinksContinue(context.Background(), "cur-1")
		require.NoError(t, err)
	})
}

func TestSharingAPI_RevokeSharedLink(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/sharing/revoke_shared_link",
		`{"url": "https://www.dropbox.com/s/abc"}`,
		"null"))

	err := c.Sharing.RevokeSharedLink(context.Background(), "https://www.dropbox.com/s/abc")
	require.NoError(t, err)
}
