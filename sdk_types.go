package dropbox

import (
	"fmt"
	"runtime"

	"github.com/dbxkit/dropbox/internal/version"
)

// Headers specific to the Dropbox API.
const (
	HeaderUserAgent   = "User-Agent"
	HeaderAPIArg      = "Dropbox-API-Arg"
	HeaderAPIResult   = "Dropbox-API-Result"
	HeaderSelectUser  = "Dropbox-API-Select-User"
	HeaderSelectAdmin = "Dropbox-API-Select-Admin"
	HeaderPathRoot    = "Dropbox-API-Path-Root"
	HeaderRetryAfter  = "Retry-After"
)

// The four fixed Dropbox endpoints. The content host is separate from the
// RPC host so bulk transfers do not share connections with metadata calls.
const (
	DefaultAuthorizeURL = "https://www.dropbox.com/oauth2/authorize"
	DefaultTokenURL     = "https://api.dropboxapi.com/oauth2/token"
	DefaultAPIURL       = "https://api.dropboxapi.com/2"
	DefaultContentURL   = "https://content.dropboxapi.com/2"
)

// MaxChunkSize is the largest payload Dropbox accepts in a single
// upload_session call. Configured chunk sizes are clamped to it.
const MaxChunkSize int64 = 150 * 1024 * 1024

// DefaultMaxCallRetries bounds how many times a single logical call may be
// re-sent by the refresh and rate-limit policies combined.
const DefaultMaxCallRetries = 3

var UserAgent = fmt.Sprintf("%s (%s; %s; %s)", version.UserAgent(), version.Revision, runtime.GOOS, runtime.GOARCH)

// TagRef holds the .tag discriminator of a union value whose remaining
// fields this library does not model.
type TagRef struct {
	Tag string `json:".tag"`
}

// PathRoot selects the namespace relative paths are evaluated against,
// sent as the JSON value of the Dropbox-API-Path-Root header.
type PathRoot struct {
	Tag         string `json:".tag"`
	Root        string `json:"root,omitempty"`
	NamespaceID string `json:"namespace_id,omitempty"`
}

// PathRootHome targets the user's home namespace. This is the API default.
func PathRootHome() *PathRoot {
	return &PathRoot{Tag: "home"}
}

// PathRootRoot targets the team root namespace. The call fails with an
// invalid_root error if the id no longer matches the user's root.
func PathRootRoot(rootNamespaceID string) *PathRoot {
	return &PathRoot{Tag: "root", Root: rootNamespaceID}
}

// PathRootNamespaceID targets an arbitrary namespace by id.
func PathRootNamespaceID(namespaceID string) *PathRoot {
	return &PathRoot{Tag: "namespace_id", NamespaceID: namespaceID}
}

func (p *PathRoot) headerValue() (string, error) {
	b, err := jsonMarshal(p)
	if err != nil {
		return "", fmt.Errorf("encode path root: %w", err)
	}
	return string(b), nil
}
