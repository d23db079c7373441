package dropbox

import (
	"time"
)

// SharedLinkSettings tune who can open a link and for how long. Most
// fields need a paid plan; the zero value requests a public link.
type SharedLinkSettings struct {
	RequestedVisibility string     `json:"requested_visibility,omitempty"`
	LinkPassword        string     `json:"link_password,omitempty"`
	Expires             *time.Time `json:"expires,omitempty"`
	Audience            string     `json:"audience,omitempty"`
	Access              string     `json:"access,omitempty"`
	AllowDownload       *bool      `json:"allow_download,omitempty"`
}

type SharedLinkMetadata struct {
	Tag             string           `json:".tag,omitempty"`
	URL             string           `json:"url"`
	Name            string           `json:"name"`
	ID              string           `json:"id,omitempty"`
	PathLower       string           `json:"path_lower,omitempty"`
	Expires         *time.Time       `json:"expires,omitempty"`
	LinkPermissions *LinkPermissions `json:"link_permissions,omitempty"`
}

type LinkPermissions struct {
	CanRevoke           bool    `json:"can_revoke"`
	ResolvedVisibility  *TagRef `json:"resolved_visibility,omitempty"`
	RevokeFailureReason *TagRef `json:"revoke_failure_reason,omitempty"`
}

type createSharedLinkArg struct {
	Path     string              `json:"path"`
	Settings *SharedLinkSettings `json:"settings,omitempty"`
}

type listSharedLinksArg struct {
	Path       string `json:"path,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
	DirectOnly bool   `json:"direct_only,omitempty"`
}

type ListSharedLinksResult struct {
	Links   []*SharedLinkMetadata `json:"links"`
	HasMore bool                  `json:"has_more"`
	Cursor  string                `json:"cursor,omitempty"`
}

type revokeSharedLinkArg struct {
	URL string `json:"url"`
}
