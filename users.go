package dropbox

import (
	"context"
)

// UsersAPI exposes account information endpoints.
type UsersAPI struct {
	client *Client
}

// GetCurrentAccount returns the account the access token belongs to.
func (u *UsersAPI) GetCurrentAccount(ctx context.Context) (*FullAccount, error) {
	var res FullAccount
	if err := u.client.rpc(ctx, "users/get_current_account", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAccount looks up another user by account ID.
func (u *UsersAPI) GetAccount(ctx context.Context, accountID string) (*BasicAccount, error) {
	var res BasicAccount
	if err := u.client.rpc(ctx, "users/get_account", &getAccountArg{AccountID: accountID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetSpaceUsage returns the account's storage consumption and quota.
func (u *UsersAPI) GetSpaceUsage(ctx context.Context) (*SpaceUsage, error) {
	var res SpaceUsage
	if err := u.client.rpc(ctx, "users/get_space_usage", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
