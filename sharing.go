package dropbox

import (
	"context"
)

// SharingAPI manages shared links.
type SharingAPI struct {
	client *Client
}

// CreateSharedLink creates a link to a file or folder. settings may be nil
// for the account defaults. Creating a second link for the same path fails
// with a shared_link_already_exists error; use ListSharedLinks to fetch
// the existing one.
func (s *SharingAPI) CreateSharedLink(ctx context.Context, path string, settings *SharedLinkSettings) (*SharedLinkMetadata, error) {
	arg := &createSharedLinkArg{Path: NormalizePath(path), Settings: settings}
	var res SharedLinkMetadata
	if err := s.client.rpc(ctx, "sharing/create_shared_link_with_settings", arg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListSharedLinks returns the links on a path, or every link of the
// account when path is empty.
func (s *SharingAPI) ListSharedLinks(ctx context.Context, path string) (*ListSharedLinksResult, error) {
	arg := &listSharedLinksArg{}
	if path != "" {
		arg.Path = NormalizePath(path)
	}
	var res ListSharedLinksResult
	if err := s.client.rpc(ctx, "sharing/list_shared_links", arg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListSharedLinksContinue pages through a listing started by
// ListSharedLinks.
func (s *SharingAPI) ListSharedLinksContinue(ctx context.Context, cursor string) (*ListSharedLinksResult, error) {
	var res ListSharedLinksResult
	if err := s.client.rpc(ctx, "sharing/list_shared_links", &listSharedLinksArg{Cursor: cursor}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RevokeSharedLink deactivates a link by its URL.
func (s *SharingAPI) RevokeSharedLink(ctx context.Context, url string) error {
	return s.client.rpc(ctx, "sharing/revoke_shared_link", &revokeSharedLinkArg{URL: url}, nil)
}
