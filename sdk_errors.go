package dropbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"
)

var (
	// config
	ErrNoAppKey      = errors.New("dropbox: app key missing")
	ErrNoAccessToken = errors.New("dropbox: access token missing")

	// auth
	ErrNoRefreshToken = errors.New("dropbox: refresh token missing")
	ErrRefreshFailed  = errors.New("dropbox: token refresh failed")

	// upload
	ErrNilSource = errors.New("dropbox: nil upload source")
)

// Error tags Dropbox returns in the `.tag` field of its error envelope.
const (
	TagInvalidAccessToken = "invalid_access_token" // token is malformed or revoked
	TagInvalidSelectUser  = "invalid_select_user"  // bad Dropbox-API-Select-User header
	TagInvalidSelectAdmin = "invalid_select_admin" // bad Dropbox-API-Select-Admin header
	TagUserSuspended      = "user_suspended"       // the account has been suspended
	TagExpiredAccessToken = "expired_access_token" // short-lived token has expired
	TagMissingScope       = "missing_scope"        // token lacks a required scope
	TagRouteAccessDenied  = "route_access_denied"  // app is not allowed to call this route
	TagTooManyRequests    = "too_many_requests"    // rate limited, retry after a delay
)

// tagMessages maps well-known error tags to readable messages. Unrecognized
// tags fall back to the raw error_summary.
var tagMessages = map[string]string{
	TagInvalidAccessToken: "The access token is malformed, has been revoked, or does not belong to this app",
	TagInvalidSelectUser:  "The user id passed in Dropbox-API-Select-User is invalid",
	TagInvalidSelectAdmin: "The admin id passed in Dropbox-API-Select-Admin is invalid",
	TagUserSuspended:      "The user account has been suspended",
	TagExpiredAccessToken: "The access token has expired",
	TagMissingScope:       "The access token does not have the scope required for this call",
	TagRouteAccessDenied:  "This app is not permitted to access this endpoint",
	TagTooManyRequests:    "Too many requests, slow down",
}

// Error is implemented by every typed error this package returns for a
// non-success API response.
type Error interface {
	error
	HTTPStatus() int
}

// BaseError carries the fields shared by both error kinds.
type BaseError struct {
	StatusCode int
	Message    string
}

func (e *BaseError) HTTPStatus() int { return e.StatusCode }

// APIError is an error returned by an RPC or content endpoint, decoded from
// the Dropbox error envelope ({"error_summary": ..., "error": {".tag": ...}}).
type APIError struct {
	BaseError
	Endpoint    string        // API route that produced the error, e.g. "files/upload"
	Tag         string        // machine-readable union tag, may be empty
	Summary     string        // raw error_summary
	UserMessage string        // message safe to show end users, rarely set
	RetryAfter  time.Duration // from the Retry-After header on 429s
}

func (e *APIError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("dropbox api error: %s: %s (%d) - %s", e.Endpoint, e.Tag, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("dropbox api error: %s (%d) - %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsExpiredAccessToken reports whether the call failed because the
// short-lived access token has expired and needs a refresh.
func (e *APIError) IsExpiredAccessToken() bool {
	return e.Tag == TagExpiredAccessToken
}

// IsInvalidAccessToken reports whether the token was rejected outright.
func (e *APIError) IsInvalidAccessToken() bool {
	return e.Tag == TagInvalidAccessToken
}

// IsRateLimited reports whether the call was throttled. RetryAfter holds the
// server-suggested wait when set.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Tag == TagTooManyRequests
}

// IsPathNotFound reports whether the error summary indicates a missing file
// or folder, e.g. "path/not_found/" or "path_lookup/not_found/".
func (e *APIError) IsPathNotFound() bool {
	return containsSegment(e.Summary, "not_found")
}

// IsPathConflict reports whether the write failed due to a conflicting
// file, folder or ongoing operation at the target path.
func (e *APIError) IsPathConflict() bool {
	return containsSegment(e.Summary, "conflict")
}

var _ Error = (*APIError)(nil)

// AuthError is an error returned by the OAuth2 token endpoint, e.g. a bad
// client secret or a revoked refresh token.
type AuthError struct {
	BaseError
	Code        string // oauth2 error code, e.g. "invalid_grant"
	Description string // raw error_description
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("dropbox auth error: %s (%d) - %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("dropbox auth error: (%d) - %s", e.StatusCode, e.Message)
}

// IsInvalidGrant reports whether the authorization code or refresh token was
// rejected. The user has to re-authorize the app.
func (e *AuthError) IsInvalidGrant() bool {
	return e.Code == "invalid_grant"
}

// IsInvalidClient reports whether the app key/secret pair was rejected.
func (e *AuthError) IsInvalidClient() bool {
	return e.Code == "invalid_client"
}

var _ Error = (*AuthError)(nil)

// errorEnvelope covers both error body shapes Dropbox produces: API routes
// return {"error_summary", "error": {".tag": ...}, "user_message"}, while the
// OAuth endpoint returns {"error": "<code>", "error_description": ...}.
type errorEnvelope struct {
	ErrorSummary     string          `json:"error_summary"`
	UserMessage      string          `json:"user_message"`
	ErrorDescription string          `json:"error_description"`
	RawError         json.RawMessage `json:"error"`
}

// errorTag extracts the machine-readable tag: the nested `.tag` field when
// the error is a union object, otherwise the first segment of error_summary.
func (env *errorEnvelope) errorTag() string {
	var tagged struct {
		Tag string `json:".tag"`
	}
	if jsonUnmarshal(env.RawError, &tagged) == nil && tagged.Tag != "" {
		return tagged.Tag
	}
	return firstSegment(env.ErrorSummary)
}

// errorString returns the `error` field when it is a plain string, as on
// OAuth responses.
func (env *errorEnvelope) errorString() string {
	var s string
	if jsonUnmarshal(env.RawError, &s) == nil {
		return s
	}
	return ""
}

// classifyResponse translates a non-2xx response body into a typed error.
// Classification order: API error envelope first, then the two OAuth shapes,
// then a catch-all for bodies this library does not understand.
func classifyResponse(endpoint string, status int, header http.Header, body []byte) error {
	var env errorEnvelope
	_ = jsonUnmarshal(body, &env) // non-JSON bodies fall through to the catch-all

	switch {
	case env.ErrorSummary != "" || env.UserMessage != "":
		tag := env.errorTag()
		msg := env.UserMessage
		if msg == "" {
			msg = tagMessages[tag]
		}
		if msg == "" {
			msg = env.ErrorSummary
		}
		if msg == "" {
			msg = tag
		}
		return &APIError{
			BaseError:   BaseError{StatusCode: status, Message: msg},
			Endpoint:    endpoint,
			Tag:         tag,
			Summary:     env.ErrorSummary,
			UserMessage: env.UserMessage,
			RetryAfter:  parseRetryAfter(header),
		}

	case env.ErrorDescription != "":
		return &AuthError{
			BaseError:   BaseError{StatusCode: status, Message: env.ErrorDescription},
			Code:        env.errorString(),
			Description: env.ErrorDescription,
		}

	case env.errorString() != "":
		code := env.errorString()
		return &AuthError{
			BaseError: BaseError{StatusCode: status, Message: code},
			Code:      code,
		}

	default:
		return &APIError{
			BaseError:  BaseError{StatusCode: status, Message: "unknown error occurred"},
			Endpoint:   endpoint,
			RetryAfter: parseRetryAfter(header),
		}
	}
}

// handleAPIError folds the common post-request pattern into one call:
// transport errors are wrapped, error-state responses are classified, and
// success yields nil.
func handleAPIError(resp *req.Response, requestErr error, endpoint string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", endpoint, requestErr)
	}
	if resp.IsErrorState() {
		return classifyResponse(endpoint, resp.GetStatusCode(), resp.Header, resp.Bytes())
	}
	return nil
}

// parseRetryAfter reads the Retry-After header. Dropbox sends seconds.
func parseRetryAfter(header http.Header) time.Duration {
	v := header.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// firstSegment returns the text before the first '/' of a summary like
// "expired_access_token/..".
func firstSegment(summary string) string {
	segment, _, _ := strings.Cut(summary, "/")
	return segment
}

// containsSegment reports whether a '/'-separated error summary contains the
// given segment, e.g. ("path/not_found/", "not_found") is true.
func containsSegment(summary, segment string) bool {
	return slices.Contains(strings.Split(summary, "/"), segment)
}
