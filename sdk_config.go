package dropbox

import (
	"net/http"
	"time"
)

// Config carries the app credentials, tokens and client policy for a Client.
// The zero value of every optional field selects a sensible default.
type Config struct {
	// App credentials from the Dropbox developer console. AppSecret stays
	// empty for public clients that authorize through PKCE.
	AppKey    string
	AppSecret string

	// AccessToken alone is enough for short-lived use. Adding RefreshToken
	// (plus AppKey) lets the client renew it when it expires.
	AccessToken  string
	RefreshToken string

	// TokenExpiry is when AccessToken stops working, if known. A zero value
	// means the token is used until the API rejects it.
	TokenExpiry time.Time

	// Endpoint overrides, primarily for tests. Empty values select the
	// public Dropbox endpoints.
	AuthorizeURL string
	TokenURL     string
	APIURL       string
	ContentURL   string

	// ChunkSize is the number of bytes sent per upload_session call during
	// chunked uploads. Values above MaxChunkSize are clamped, zero or
	// negative values select MaxChunkSize.
	ChunkSize int64

	// MaxChunkRetries is how many extra attempts a failed chunk gets when
	// the source stream can rewind. Non-seekable sources never retry.
	MaxChunkRetries int

	// AutoRefresh renews an expired access token and replays the failed
	// call. Requires AppKey and RefreshToken.
	AutoRefresh bool

	// AutoRetry honors Retry-After on rate-limited calls and replays them.
	AutoRetry bool

	// MaxCallRetries bounds the combined refresh and rate-limit replays of
	// one logical call. Zero selects DefaultMaxCallRetries.
	MaxCallRetries int

	// Member and namespace scoping applied to every API call.
	SelectUser  string
	SelectAdmin string
	PathRoot    *PathRoot

	// OnTokenRefresh is invoked after every successful token refresh so the
	// caller can persist the rotated credentials.
	OnTokenRefresh func(Token)

	// HTTPClient overrides the transport used for streaming content calls.
	HTTPClient *http.Client

	// Timeout applies to RPC and token calls. Content transfers are bounded
	// by their context instead.
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return ErrNoAccessToken
	}
	if c.AccessToken == "" && c.AppKey == "" {
		// refresh-token-only configs must be able to mint an access token
		return ErrNoAppKey
	}
	return nil
}

func (c *Config) chunkSize() int64 {
	if c.ChunkSize <= 0 || c.ChunkSize > MaxChunkSize {
		return MaxChunkSize
	}
	return c.ChunkSize
}

func (c *Config) callRetries() int {
	if c.MaxCallRetries <= 0 {
		return DefaultMaxCallRetries
	}
	return c.MaxCallRetries
}

func (c *Config) authorizeURL() string {
	if c.AuthorizeURL != "" {
		return c.AuthorizeURL
	}
	return DefaultAuthorizeURL
}

func (c *Config) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return DefaultTokenURL
}

func (c *Config) apiURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return DefaultAPIURL
}

func (c *Config) contentURL() string {
	if c.ContentURL != "" {
		return c.ContentURL
	}
	return DefaultContentURL
}
