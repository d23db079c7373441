package dropbox

import (
	"context"
)

// TeamAPI exposes team administration endpoints. These require a token
// issued to a team app; user tokens get a route access error.
type TeamAPI struct {
	client *Client
}

// GetInfo returns the team's name, ID and license counts.
func (t *TeamAPI) GetInfo(ctx context.Context) (*TeamInfo, error) {
	var res TeamInfo
	if err := t.client.rpc(ctx, "team/get_info", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MembersList returns the first page of team members. limit 0 uses the
// server default.
func (t *TeamAPI) MembersList(ctx context.Context, limit uint32, includeRemoved bool) (*MembersListResult, error) {
	arg := &membersListArg{Limit: limit, IncludeRemoved: includeRemoved}
	var res MembersListResult
	if err := t.client.rpc(ctx, "team/members/list", arg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MembersListContinue pages through a listing started by MembersList.
func (t *TeamAPI) MembersListContinue(ctx context.Context, cursor string) (*MembersListResult, error) {
	var res MembersListResult
	if err := t.client.rpc(ctx, "team/members/list/continue", &membersListContinueArg{Cursor: cursor}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
