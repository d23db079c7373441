package dropbox

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"golang.org/x/sync/singleflight"
)

const tokenEndpoint = "oauth2/token"

// Session owns the OAuth2 credential state shared by every API call: the
// app key/secret pair and the current token set. Safe for concurrent use.
type Session struct {
	appKey       string
	appSecret    string
	authorizeURL string
	tokenURL     string
	onRefresh    func(Token)
	client       *req.Client

	refreshing singleflight.Group

	mu    sync.Mutex
	token Token
}

// NewSession creates a standalone session, typically to run an
// authorization flow before any token exists. Sessions built by New share
// their state with the owning Client.
func NewSession(cfg *Config) *Session {
	client := req.C().
		SetUserAgent(UserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Session{
		appKey:       cfg.AppKey,
		appSecret:    cfg.AppSecret,
		authorizeURL: cfg.authorizeURL(),
		tokenURL:     cfg.tokenURL(),
		onRefresh:    cfg.OnTokenRefresh,
		client:       client,
		token: Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
			Expiry:       cfg.TokenExpiry,
		},
	}
}

// AccessToken returns the current bearer token.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.AccessToken
}

// Token returns a copy of the current token set.
func (s *Session) Token() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Expired reports whether the access token should be refreshed before use.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.Expired()
}

// CanRefresh reports whether the session has the material to mint a new
// access token on its own.
func (s *Session) CanRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token.RefreshToken != "" && s.appKey != ""
}

// GenerateState returns a random value for the state parameter of the
// authorization redirect round-trip.
func GenerateState() string {
	return uuid.NewString()
}

// AuthURL builds the URL the user visits to authorize the app. opts may be
// nil for the defaults.
func (s *Session) AuthURL(opts *AuthURLOptions) (string, error) {
	if s.appKey == "" {
		return "", ErrNoAppKey
	}
	if opts == nil {
		opts = &AuthURLOptions{}
	}

	u, err := url.Parse(s.authorizeURL)
	if err != nil {
		return "", fmt.Errorf("parse authorize url: %w", err)
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", s.appKey)
	if opts.RedirectURI != "" {
		q.Set("redirect_uri", opts.RedirectURI)
	}
	if opts.State != "" {
		q.Set("state", opts.State)
	}
	if len(opts.Scopes) > 0 {
		q.Set("scope", strings.Join(opts.Scopes, " "))
	}
	if opts.TokenAccessType != "" {
		q.Set("token_access_type", string(opts.TokenAccessType))
	}
	if opts.IncludeGrantedScopes != "" {
		q.Set("include_granted_scopes", opts.IncludeGrantedScopes)
	}
	if opts.ForceReapprove {
		q.Set("force_reapprove", "true")
	}
	if opts.DisableSignup {
		q.Set("disable_signup", "true")
	}
	if opts.Locale != "" {
		q.Set("locale", opts.Locale)
	}
	if opts.PKCE != nil {
		q.Set("code_challenge", opts.PKCE.Challenge)
		q.Set("code_challenge_method", opts.PKCE.Method)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ExchangeCode trades an authorization code for a token set and adopts it
// as the session's current credentials. pkce must be the same pair whose
// challenge was sent in the authorization URL, nil when the app secret is
// used instead.
func (s *Session) ExchangeCode(ctx context.Context, code, redirectURI string, pkce *PKCE) (*Token, error) {
	if s.appKey == "" {
		return nil, ErrNoAppKey
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", s.appKey)
	if s.appSecret != "" {
		form.Set("client_secret", s.appSecret)
	}
	if pkce != nil {
		form.Set("code_verifier", pkce.Verifier)
	}
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	tok, err := s.postTokenForm(ctx, form)
	if err != nil {
		return nil, err
	}
	s.adopt(tok)
	return tok, nil
}

// Refresh trades the refresh token for a new access token and adopts it.
// Concurrent callers share one request.
func (s *Session) Refresh(ctx context.Context) (*Token, error) {
	v, err, _ := s.refreshing.Do("refresh", func() (any, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Token), nil
}

func (s *Session) refresh(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	refreshToken := s.token.RefreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoRefreshToken)
	}
	if s.appKey == "" {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoAppKey)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.appKey)
	if s.appSecret != "" {
		form.Set("client_secret", s.appSecret)
	}

	tok, err := s.postTokenForm(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	s.adopt(tok)
	slog.Debug("dropbox token refreshed", "expires_in", tok.ExpiresIn)

	if s.onRefresh != nil {
		s.onRefresh(*tok)
	}
	return tok, nil
}

func (s *Session) postTokenForm(ctx context.Context, form url.Values) (*Token, error) {
	var tok Token
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetSuccessResult(&tok).
		Post(s.tokenURL)
	if err := handleAPIError(resp, err, tokenEndpoint); err != nil {
		return nil, err
	}
	if tok.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return &tok, nil
}

// adopt makes tok the session's current credentials. Refresh responses omit
// the refresh token, so the existing one is carried over into tok.
func (s *Session) adopt(tok *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.RefreshToken == "" {
		tok.RefreshToken = s.token.RefreshToken
	}
	s.token = *tok
}
