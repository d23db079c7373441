package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbxkit/dropbox"
	"github.com/spf13/viper"
)

// newClient builds an SDK client from the resolved viper config. Rotated
// tokens are written back to the config file so refreshes survive the
// process.
func newClient() (*dropbox.Client, error) {
	return newTunedClient(0, 0)
}

func newTunedClient(chunkSize int64, chunkRetries int) (*dropbox.Client, error) {
	cfg := &dropbox.Config{
		AppKey:       viper.GetString("app_key"),
		AppSecret:    viper.GetString("app_secret"),
		AccessToken:  viper.GetString("access_token"),
		RefreshToken: viper.GetString("refresh_token"),
		SelectUser:   viper.GetString("select_user"),
		SelectAdmin:  viper.GetString("select_admin"),
		APIURL:       viper.GetString("api_url"),
		ContentURL:   viper.GetString("content_url"),
		AuthorizeURL: viper.GetString("authorize_url"),
		TokenURL:     viper.GetString("token_url"),
		AutoRefresh:  true,
		AutoRetry:    true,

		ChunkSize:       chunkSize,
		MaxChunkRetries: chunkRetries,
		OnTokenRefresh: func(tok dropbox.Token) {
			persistToken(&tok)
		},
	}
	if exp := viper.GetString("token_expiry"); exp != "" {
		if t, err := time.Parse(time.RFC3339, exp); err == nil {
			cfg.TokenExpiry = t
		}
	}

	c, err := dropbox.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("not logged in, run 'dbx auth login' first: %w", err)
	}
	return c, nil
}

// persistToken saves rotated credentials into the active config file,
// creating it on first login.
func persistToken(tok *dropbox.Token) error {
	viper.Set("access_token", tok.AccessToken)
	if tok.RefreshToken != "" {
		viper.Set("refresh_token", tok.RefreshToken)
	}
	if !tok.Expiry.IsZero() {
		viper.Set("token_expiry", tok.Expiry.Format(time.RFC3339))
	}
	if tok.AccountID != "" {
		viper.Set("account_id", tok.AccountID)
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		path = defaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return viper.WriteConfigAs(path)
}
