package dropbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/imroc/req/v3"
)

// maxErrorBody caps how much of a failed download body is read for error
// classification.
const maxErrorBody = 8 << 10

// Client talks to the Dropbox HTTP API v2. RPC-style calls go through the
// api host, bulk transfers through the content host, and token operations
// through the Session. Safe for concurrent use.
type Client struct {
	cfg          *Config
	api          *req.Client
	content      *http.Client
	contentURL   string
	scopeHeaders map[string]string

	// Session holds the credential state. Use it for authorization flows
	// and to read the current token after refreshes.
	Session *Session

	Files   *FilesAPI
	Sharing *SharingAPI
	Users   *UsersAPI
	Team    *TeamAPI
}

// New creates a Client from cfg. The config must carry an access token or
// refresh material (refresh token plus app key).
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scopeHeaders := map[string]string{}
	if cfg.SelectUser != "" {
		scopeHeaders[HeaderSelectUser] = cfg.SelectUser
	}
	if cfg.SelectAdmin != "" {
		scopeHeaders[HeaderSelectAdmin] = cfg.SelectAdmin
	}
	if cfg.PathRoot != nil {
		hv, err := cfg.PathRoot.headerValue()
		if err != nil {
			return nil, err
		}
		scopeHeaders[HeaderPathRoot] = hv
	}

	api := req.C().
		SetBaseURL(cfg.apiURL()).
		SetUserAgent(UserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
	if cfg.Timeout > 0 {
		api.SetTimeout(cfg.Timeout)
	}
	for k, v := range scopeHeaders {
		api.SetCommonHeader(k, v)
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		// content transfers are long-lived, cancellation comes from the
		// request context rather than a client timeout
		httpc = &http.Client{}
	}

	c := &Client{
		cfg:          cfg,
		api:          api,
		content:      httpc,
		contentURL:   cfg.contentURL(),
		scopeHeaders: scopeHeaders,
		Session:      NewSession(cfg),
	}
	c.Files = &FilesAPI{client: c}
	c.Sharing = &SharingAPI{client: c}
	c.Users = &UsersAPI{client: c}
	c.Team = &TeamAPI{client: c}
	return c, nil
}

// Close releases idle connections held by the underlying transports.
func (c *Client) Close() {
	c.api.GetClient().CloseIdleConnections()
	c.content.CloseIdleConnections()
}

// CheckUserResult is the echo response of the check/user endpoint.
type CheckUserResult struct {
	Result string `json:"result"`
}

// CheckUser round-trips a query string through check/user, verifying both
// connectivity and the user access token.
func (c *Client) CheckUser(ctx context.Context, query string) (*CheckUserResult, error) {
	arg := map[string]string{"query": query}
	var res CheckUserResult
	if err := c.rpc(ctx, "check/user", arg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RevokeToken invalidates the current access token, and with it the paired
// refresh token.
func (c *Client) RevokeToken(ctx context.Context) error {
	return c.rpc(ctx, "auth/token/revoke", nil, nil)
}

// do runs one logical call through the token-refresh and rate-limit
// policies. fn is invoked once per attempt and must be safe to re-run; the
// combined number of replays is bounded by Config.MaxCallRetries.
func (c *Client) do(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	// a missing or known-expired token would only bounce off the server,
	// mint a fresh one before the first attempt
	if c.cfg.AutoRefresh && c.Session.CanRefresh() && (c.Session.AccessToken() == "" || c.Session.Expired()) {
		if _, err := c.Session.Refresh(ctx); err != nil {
			return err
		}
	}

	retries := 0
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || retries >= c.cfg.callRetries() {
			return err
		}

		switch {
		case apiErr.IsExpiredAccessToken() && c.cfg.AutoRefresh && c.Session.CanRefresh():
			if _, rerr := c.Session.Refresh(ctx); rerr != nil {
				return rerr
			}

		case apiErr.IsRateLimited() && c.cfg.AutoRetry:
			wait := apiErr.RetryAfter
			if wait <= 0 {
				wait = time.Second
			}
			slog.Debug("dropbox rate limited", "endpoint", endpoint, "wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

		default:
			return err
		}
		retries++
	}
}

// rpc posts a JSON argument to an api-host endpoint like
// "files/list_folder" and decodes the JSON response into result. A nil arg
// sends the literal "null" body the API expects for argument-less routes.
func (c *Client) rpc(ctx context.Context, endpoint string, arg, result any) error {
	return c.do(ctx, endpoint, func(ctx context.Context) error {
		return c.rpcOnce(ctx, endpoint, arg, result)
	})
}

func (c *Client) rpcOnce(ctx context.Context, endpoint string, arg, result any) error {
	r := c.api.R().
		SetContext(ctx).
		SetBearerAuthToken(c.Session.AccessToken())
	if arg != nil {
		r.SetBody(arg)
	} else {
		r.SetBodyJsonString("null")
	}
	if result != nil {
		r.SetSuccessResult(result)
	}

	resp, err := r.Post("/" + endpoint)
	return handleAPIError(resp, err, endpoint)
}

// contentCall posts a replayable payload to a content-host endpoint. The
// argument travels in the Dropbox-API-Arg header, the payload in the body.
// newBody is invoked once per attempt so the refresh and rate-limit
// policies can replay the call; nil means an empty body. size -1 leaves
// the length unset for streams of unknown length.
func (c *Client) contentCall(ctx context.Context, endpoint string, arg any, size int64, newBody func() (io.Reader, error), result any) error {
	return c.do(ctx, endpoint, func(ctx context.Context) error {
		var body io.Reader
		if newBody != nil {
			var err error
			if body, err = newBody(); err != nil {
				return fmt.Errorf("prepare %s body: %w", endpoint, err)
			}
		}
		return c.contentCallOnce(ctx, endpoint, arg, size, body, result)
	})
}

// contentCallOnce is the single-attempt variant for payloads that cannot be
// replayed, i.e. chunks read off a pipe. Retry decisions for those stay
// with the chunk loop.
func (c *Client) contentCallOnce(ctx context.Context, endpoint string, arg any, size int64, body io.Reader, result any) error {
	resp, err := c.contentRequest(ctx, endpoint, arg, size, body, nil)
	if err != nil {
		return fmt.Errorf("http request error: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %s: %w", endpoint, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return classifyResponse(endpoint, resp.StatusCode, resp.Header, data)
	}
	if result != nil {
		if err := jsonUnmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %s: %w", endpoint, err)
		}
	}
	return nil
}

// contentFetch sends a bodyless content-host request and hands back the
// raw response for streaming. The caller owns resp.Body.
func (c *Client) contentFetch(ctx context.Context, endpoint string, arg any, header http.Header) (*http.Response, error) {
	var out *http.Response
	err := c.do(ctx, endpoint, func(ctx context.Context) error {
		resp, err := c.contentRequest(ctx, endpoint, arg, -1, nil, header)
		if err != nil {
			return fmt.Errorf("http request error: %s: %w", endpoint, err)
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			defer resp.Body.Close()
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return classifyResponse(endpoint, resp.StatusCode, resp.Header, data)
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// contentRequest builds and sends one content-host request. Uses net/http
// directly: the body must stream as-is with an exact Content-Length, which
// fluent clients tend to break by buffering or re-encoding.
func (c *Client) contentRequest(ctx context.Context, endpoint string, arg any, size int64, body io.Reader, header http.Header) (*http.Response, error) {
	argHeader, err := apiArgHeader(arg)
	if err != nil {
		return nil, fmt.Errorf("encode %s arg: %w", endpoint, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+"/"+endpoint, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(HeaderUserAgent, UserAgent)
	httpReq.Header.Set("Authorization", "Bearer "+c.Session.AccessToken())
	httpReq.Header.Set(HeaderAPIArg, argHeader)
	for k, v := range c.scopeHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/octet-stream")
		if size >= 0 {
			httpReq.ContentLength = size
		}
	}

	return c.content.Do(httpReq)
}

// apiArgHeader encodes v as the value of the Dropbox-API-Arg header. HTTP
// headers are ASCII-only, so every rune past 0x7E is rewritten as a JSON
// \u escape, which the server decodes back.
func apiArgHeader(v any) (string, error) {
	b, err := jsonMarshal(v)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for _, r := range string(b) {
		switch {
		case r <= 0x7E:
			sb.WriteRune(r)
		case r <= 0xFFFF:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, `\u%04x\u%04x`, hi, lo)
		}
	}
	return sb.String(), nil
}
