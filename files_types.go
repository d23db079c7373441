package dropbox

import (
	"time"
)

// Union tags discriminating folder listing entries.
const (
	MetadataTagFile    = "file"
	MetadataTagFolder  = "folder"
	MetadataTagDeleted = "deleted"
)

// Metadata describes a file, folder or deletion record. Folder listings
// discriminate entries by Tag; single-entry responses such as upload
// results leave it empty and carry file fields only.
type Metadata struct {
	Tag            string    `json:".tag,omitempty"`
	Name           string    `json:"name"`
	ID             string    `json:"id,omitempty"`
	PathLower      string    `json:"path_lower,omitempty"`
	PathDisplay    string    `json:"path_display,omitempty"`
	ClientModified time.Time `json:"client_modified"`
	ServerModified time.Time `json:"server_modified"`
	Rev            string    `json:"rev,omitempty"`
	Size           uint64    `json:"size,omitempty"`
	ContentHash    string    `json:"content_hash,omitempty"`
	IsDownloadable bool      `json:"is_downloadable,omitempty"`
}

func (m *Metadata) IsFile() bool    { return m.Tag == MetadataTagFile }
func (m *Metadata) IsFolder() bool  { return m.Tag == MetadataTagFolder }
func (m *Metadata) IsDeleted() bool { return m.Tag == MetadataTagDeleted }

// ListFolderArg selects what files/list_folder returns.
type ListFolderArg struct {
	Path           string `json:"path"`
	Recursive      bool   `json:"recursive"`
	IncludeDeleted bool   `json:"include_deleted"`
	Limit          uint32 `json:"limit,omitempty"`
}

type ListFolderResult struct {
	Entries []*Metadata `json:"entries"`
	Cursor  string      `json:"cursor"`
	HasMore bool        `json:"has_more"`
}

// SearchArg drives files/search_v2.
type SearchArg struct {
	Query   string         `json:"query"`
	Options *SearchOptions `json:"options,omitempty"`
}

type SearchOptions struct {
	// Path scopes the search to a folder, empty searches everything.
	Path         string `json:"path,omitempty"`
	MaxResults   uint64 `json:"max_results,omitempty"`
	FileStatus   string `json:"file_status,omitempty"`
	FilenameOnly bool   `json:"filename_only,omitempty"`
}

// SearchMatchMetadata mirrors the extra nesting level of search results,
// where each match wraps its metadata in a tagged union.
type SearchMatchMetadata struct {
	Metadata *Metadata `json:"metadata"`
}

type SearchMatch struct {
	Metadata SearchMatchMetadata `json:"metadata"`
}

type SearchResult struct {
	Matches []*SearchMatch `json:"matches"`
	HasMore bool           `json:"has_more"`
	Cursor  string         `json:"cursor,omitempty"`
}

type ListRevisionsResult struct {
	IsDeleted bool        `json:"is_deleted"`
	Entries   []*Metadata `json:"entries"`
}

type TemporaryLinkResult struct {
	Metadata *Metadata `json:"metadata"`
	Link     string    `json:"link"`
}

// WriteMode says what to do when the upload target path already exists.
// The zero value behaves like WriteModeAdd.
type WriteMode struct {
	tag       string
	updateRev string
}

var (
	// WriteModeAdd never overwrites, conflicts get a renamed copy.
	WriteModeAdd = WriteMode{tag: "add"}
	// WriteModeOverwrite replaces whatever is at the path.
	WriteModeOverwrite = WriteMode{tag: "overwrite"}
)

// WriteModeUpdate overwrites only when the file is still at revision rev.
func WriteModeUpdate(rev string) WriteMode {
	return WriteMode{tag: "update", updateRev: rev}
}

// MarshalJSON encodes the short union form for argument-less modes and the
// tagged object form for update.
func (m WriteMode) MarshalJSON() ([]byte, error) {
	if m.tag == "update" {
		return jsonMarshal(struct {
			Tag    string `json:".tag"`
			Update string `json:"update"`
		}{Tag: m.tag, Update: m.updateRev})
	}
	tag := m.tag
	if tag == "" {
		tag = "add"
	}
	return jsonMarshal(tag)
}

// CommitInfo is the argument committing uploaded content to a path, shared
// by files/upload and upload_session/finish.
type CommitInfo struct {
	Path           string     `json:"path"`
	Mode           WriteMode  `json:"mode"`
	AutoRename     bool       `json:"autorename,omitempty"`
	Mute           bool       `json:"mute,omitempty"`
	StrictConflict bool       `json:"strict_conflict,omitempty"`
	ClientModified *time.Time `json:"client_modified,omitempty"`
}

// UploadOptions tune a single upload. The zero value adds without
// overwriting and reports no progress.
type UploadOptions struct {
	Mode           WriteMode
	AutoRename     bool
	Mute           bool
	StrictConflict bool
	// ClientModified records the file's own modification time, as opposed
	// to the upload time.
	ClientModified *time.Time
	// Progress, when set, is called with the running byte count.
	Progress ProgressFunc
}

// commitInfo folds the options into the wire argument for path. Timestamps
// are truncated to whole seconds, the only precision the API accepts.
func (o *UploadOptions) commitInfo(path string) *CommitInfo {
	ci := &CommitInfo{Path: path, Mode: WriteModeAdd}
	if o == nil {
		return ci
	}
	ci.Mode = o.Mode
	ci.AutoRename = o.AutoRename
	ci.Mute = o.Mute
	ci.StrictConflict = o.StrictConflict
	if o.ClientModified != nil {
		t := o.ClientModified.UTC().Truncate(time.Second)
		ci.ClientModified = &t
	}
	return ci
}

// UploadSessionCursor addresses a position in an open upload session. The
// session id never changes; the offset must equal the total bytes the
// server has accepted so far.
type UploadSessionCursor struct {
	SessionID string `json:"session_id"`
	Offset    uint64 `json:"offset"`
}

// advanced returns a new cursor moved forward by n bytes.
func (c UploadSessionCursor) advanced(n int64) UploadSessionCursor {
	return UploadSessionCursor{SessionID: c.SessionID, Offset: c.Offset + uint64(n)}
}

type UploadSessionStartResult struct {
	SessionID string `json:"session_id"`
}

type uploadSessionStartArg struct {
	Close bool `json:"close"`
}

type uploadSessionAppendArg struct {
	Cursor UploadSessionCursor `json:"cursor"`
	Close  bool                `json:"close"`
}

type uploadSessionFinishArg struct {
	Cursor UploadSessionCursor `json:"cursor"`
	Commit *CommitInfo         `json:"commit"`
}

// Small wire arguments shared by several endpoints.

type pathArg struct {
	Path string `json:"path"`
}

type cursorArg struct {
	Cursor string `json:"cursor"`
}

type relocationArg struct {
	FromPath               string `json:"from_path"`
	ToPath                 string `json:"to_path"`
	AutoRename             bool   `json:"autorename,omitempty"`
	AllowOwnershipTransfer bool   `json:"allow_ownership_transfer,omitempty"`
}

type createFolderArg struct {
	Path       string `json:"path"`
	AutoRename bool   `json:"autorename,omitempty"`
}

type listRevisionsArg struct {
	Path  string `json:"path"`
	Mode  string `json:"mode,omitempty"`
	Limit uint64 `json:"limit,omitempty"`
}

type restoreArg struct {
	Path string `json:"path"`
	Rev  string `json:"rev"`
}

// metadataResult unwraps the {"metadata": ...} envelope of the _v2 write
// endpoints.
type metadataResult struct {
	Metadata *Metadata `json:"metadata"`
}
