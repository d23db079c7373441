package dropbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenAccessType selects what kind of token the authorization flow issues.
type TokenAccessType string

const (
	// TokenAccessTypeOnline issues a short-lived access token only.
	TokenAccessTypeOnline TokenAccessType = "online"
	// TokenAccessTypeOffline additionally issues a refresh token.
	TokenAccessTypeOffline TokenAccessType = "offline"
	// TokenAccessTypeLegacy issues a long-lived token on legacy apps.
	TokenAccessTypeLegacy TokenAccessType = "legacy"
)

// expirySkew is subtracted from the token deadline so calls made right at
// the edge do not race the server-side expiry.
const expirySkew = 30 * time.Second

// Token is the decoded response of the oauth2/token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	TeamID       string `json:"team_id,omitempty"`
	UID          string `json:"uid,omitempty"`
	IDToken      string `json:"id_token,omitempty"`

	// Expiry is computed from ExpiresIn when the response arrives.
	Expiry time.Time `json:"-"`
}

// Expired reports whether the access token is past (or within expirySkew
// of) its deadline. Tokens with an unknown deadline never report expired.
func (t *Token) Expired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry.Add(-expirySkew))
}

// IDTokenClaims are the OpenID Connect claims carried in the id_token when
// the openid scope was granted.
type IDTokenClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Country       string `json:"country,omitempty"`
	Locale        string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

// IDTokenClaims decodes the id_token claims without verifying the
// signature. The token arrived over TLS from the token endpoint itself, so
// the claims are used for display only, never for authentication decisions.
func (t *Token) IDTokenClaims() (*IDTokenClaims, error) {
	if t.IDToken == "" {
		return nil, fmt.Errorf("token has no id_token, was the openid scope requested?")
	}
	var claims IDTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(t.IDToken, &claims); err != nil {
		return nil, fmt.Errorf("parse id_token: %w", err)
	}
	return &claims, nil
}

// PKCE holds one proof-key pair for the authorization code flow. Public
// clients use it in place of an app secret.
type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

// pkceVerifierLen is the number of random bytes behind a verifier. Encoded
// it yields 86 characters, within the 43..128 range RFC 7636 allows.
const pkceVerifierLen = 64

// NewPKCE generates a fresh verifier and its S256 challenge.
func NewPKCE() (*PKCE, error) {
	raw := make([]byte, pkceVerifierLen)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate pkce verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	return &PKCE{
		Verifier:  verifier,
		Challenge: GenerateCodeChallenge(verifier),
		Method:    "S256",
	}, nil
}

// GenerateCodeChallenge derives the S256 code challenge for a verifier:
// the unpadded URL-safe base64 of its SHA-256 digest.
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthURLOptions control the parameters of the authorization URL.
type AuthURLOptions struct {
	// RedirectURI must exactly match one registered for the app. Leave
	// empty for the code to be displayed to the user instead.
	RedirectURI string

	// State is echoed back on the redirect to defeat CSRF.
	State string

	// Scopes to request. Empty requests everything the app is allowed.
	Scopes []string

	// TokenAccessType should be TokenAccessTypeOffline for clients that
	// want refresh tokens.
	TokenAccessType TokenAccessType

	// PKCE attaches a code challenge. Required for clients with no secret.
	PKCE *PKCE

	// IncludeGrantedScopes is "user" or "team" for incremental consent.
	IncludeGrantedScopes string

	ForceReapprove bool
	DisableSignup  bool
	Locale         string
}
