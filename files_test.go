package dropbox

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcHandler asserts one RPC wire exchange: the endpoint path, the exact
// request body and a canned response.
func rpcHandler(t *testing.T, wantPath, wantBody, response string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, wantBody, string(body))
		writeJSON(w, http.StatusOK, response)
	})
}

func TestFilesAPI_ListFolder(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/list_folder",
		`{"path": "/Docs", "recursive": true, "include_deleted": false}`,
		`{
			"entries": [
				{".tag": "file", "name": "a.txt", "size": 3, "rev": "r1"},
				{".tag": "folder", "name": "sub"}
			],
			"cursor": "cur-1",
			"has_more": true
		}`))

	res, err := c.Files.ListFolder(context.Background(), &ListFolderArg{Path: "Docs/", Recursive: true})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.True(t, res.Entries[0].IsFile())
	assert.Equal(t, uint64(3), res.Entries[0].Size)
	assert.True(t, res.Entries[1].IsFolder())
	assert.False(t, res.Entries[1].IsDeleted())
	assert.Equal(t, "cur-1", res.Cursor)
	assert.True(t, res.HasMore)
}

func TestFilesAPI_ListFolder_RootIsEmptyString(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/list_folder",
		`{"path": "", "recursive": false, "include_deleted": false}`,
		`{"entries": [], "cursor": "", "has_more": false}`))

	_, err := c.Files.ListFolder(context.Background(), &ListFolderArg{Path: "/"})
	require.NoError(t, err)
}

func TestFilesAPI_ListFolderContinue(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/list_folder/continue",
		`{"cursor": "cur-1"}`,
		`{"entries": [], "cursor": "cur-2", "has_more": false}`))

	res, err := c.Files.ListFolderContinue(context.Background(), "cur-1")
	require.NoError(t, err)
	assert.Equal(t, "cur-2", res.Cursor)
}

func TestFilesAPI_GetMetadata(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/get_metadata",
		`{"path": "/a.txt"}`,
		`{"name": "a.txt", "path_display": "/a.txt", "rev": "r7", "size": 42}`))

	meta, err := c.Files.GetMetadata(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "r7", meta.Rev)
	assert.Equal(t, uint64(42), meta.Size)
}

func TestFilesAPI_CreateFolder(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/create_folder_v2",
		`{"path": "/new folder", "autorename": true}`,
		`{"metadata": {"name": "new folder", "path_display": "/new folder"}}`))

	meta, err := c.Files.CreateFolder(context.Background(), "new folder", true)
	require.NoError(t, err)
	assert.Equal(t, "new folder", meta.Name)
}

func TestFilesAPI_Delete(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/delete_v2",
		`{"path": "/old.txt"}`,
		`{"metadata": {".tag": "file", "name": "old.txt"}}`))

	meta, err := c.Files.Delete(context.Background(), "/old.txt")
	require.NoError(t, err)
	assert.Equal(t, "old.txt", meta.Name)
}

func TestFilesAPI_MoveAndCopy(t *testing.T) {
	t.Run("move", func(t *testing.T) {
		c := newTestClient(t, nil, rpcHandler(t,
			"/files/move_v2",
			`{"from_path": "/a.txt", "to_path": "/b.txt"}`,
			`{"metadata": {"name": "b.txt"}}`))

		meta, err := c.Files.Move(context.Background(), "a.txt", "b.txt")
		require.NoError(t, err)
		assert.Equal(t, "b.txt", meta.Name)
	})

	t.Run("copy", func(t *testing.T) {
		c := newTestClient(t, nil, rpcHandler(t,
			"/files/copy_v2",
			`{"from_path": "/a.txt", "to_path": "/b.txt"}`,
			`{"metadata": {"name": "b.txt"}}`))

		_, err := c.Files.Copy(context.Background(), "a.txt", "b.txt")
		require.NoError(t, err)
	})
}

func TestFilesAPI_Search(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/search_v2",
		`{"query": "report", "options": {"path": "/Docs", "max_results": 5}}`,
		`{
			"matches": [
				{"metadata": {"metadata": {".tag": "file", "name": "report.pdf"}}}
			],
			"has_more": false
		}`))

	res, err := c.Files.Search(context.Background(), &SearchArg{
		Query:   "report",
		Options: &SearchOptions{Path: "Docs", MaxResults: 5},
	})
	require.NoError(t, err)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "report.pdf", res.Matches[0].Metadata.Metadata.Name)
	assert.False(t, res.HasMore)
}

func TestFilesAPI_GetTemporaryLink(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/get_temporary_link",
		`{"path": "/a.txt"}`,
		`{"metadata": {"name": "a.txt"}, "link": "https://dl.dropboxusercontent.com/abc"}`))

	res, err := c.Files.GetTemporaryLink(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "https://dl.dropboxusercontent.com/abc", res.Link)
	assert.Equal(t, "a.txt", res.Metadata.Name)
}

func TestFilesAPI_ListRevisions(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/list_revisions",
		`{"path": "/a.txt", "limit": 3}`,
		`{"is_deleted": false, "entries": [{"rev": "r3"}, {"rev": "r2"}, {"rev": "r1"}]}`))

	res, err := c.Files.ListRevisions(context.Background(), "a.txt", 3)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, "r3", res.Entries[0].Rev)
}

func TestFilesAPI_Restore(t *testing.T) {
	c := newTestClient(t, nil, rpcHandler(t,
		"/files/restore",
		`{"path": "/a.txt", "rev": "r1"}`,
		`{"name": "a.txt", "rev": "r4"}`))

	meta, err := c.Files.Restore(context.Background(), "a.txt", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r4", meta.Rev)
}

func TestWriteMode_MarshalJSON(t *testing.T) {
	add, err := jsonMarshal(WriteModeAdd)
	require.NoError(t, err)
	assert.Equal(t, `"add"`, string(add))

	overwrite, err := jsonMarshal(WriteModeOverwrite)
	require.NoError(t, err)
	assert.Equal(t, `"overwrite"`, string(overwrite))

	update, err := jsonMarshal(WriteModeUpdate("rev-9"))
	require.NoError(t, err)
	assert.JSONEq(t, `{".tag": "update", "update": "rev-9"}`, string(update))

	var zero WriteMode
	b, err := jsonMarshal(zero)
	require.NoError(t, err)
	assert.Equal(t, `"add"`, string(b), "the zero value behaves like add")
}

func TestUploadOptions_CommitInfo(t *testing.T) {
	var opts *UploadOptions
	ci := opts.commitInfo("/a.txt")
	assert.Equal(t, "/a.txt", ci.Path)
	assert.Equal(t, WriteModeAdd, ci.Mode)
	assert.Nil(t, ci.ClientModified)

	mod := time.Date(2024, 5, 17, 10, 30, 45, 987654321, time.UTC)
	opts = &UploadOptions{
		Mode:           WriteModeOverwrite,
		AutoRename:     true,
		ClientModified: &mod,
	}
	ci = opts.commitInfo("/b.txt")
	assert.Equal(t, WriteModeOverwrite, ci.Mode)
	assert.True(t, ci.AutoRename)
	require.NotNil(t, ci.ClientModified)
	assert.Equal(t, time.Date(2024, 5, 17, 10, 30, 45, 0, time.UTC), *ci.ClientModified,
		"timestamps are truncated to whole seconds")
}
