package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a Client at an httptest server standing in for all
// three Dropbox hosts. The token endpoint is routed under /oauth2/token.
func newTestClient(t *testing.T, cfg *Config, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.AccessToken == "" && cfg.RefreshToken == "" {
		cfg.AccessToken = "test-token"
	}
	cfg.APIURL = srv.URL
	cfg.ContentURL = srv.URL
	cfg.TokenURL = srv.URL + "/oauth2/token"
	cfg.AuthorizeURL = srv.URL + "/oauth2/authorize"

	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func writeAPIError(w http.ResponseWriter, status int, tag string) {
	writeJSON(w, status, fmt.Sprintf(`{"error_summary": "%s/..", "error": {".tag": "%s"}}`, tag, tag))
}

func writeToken(w http.ResponseWriter, accessToken string) {
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"access_token": "%s", "token_type": "bearer", "expires_in": 14400}`, accessToken))
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoAccessToken)

	_, err = New(&Config{RefreshToken: "r1"})
	assert.ErrorIs(t, err, ErrNoAppKey)

	c, err := New(&Config{AccessToken: "tok"})
	require.NoError(t, err)
	c.Close()
}

func TestClient_RPC_SendsNullForNilArg(t *testing.T) {
	c := newTestClient(t, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/token/revoke", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "null", string(body))
		writeJSON(w, http.StatusOK, "null")
	}))

	require.NoError(t, c.RevokeToken(context.Background()))
}

func TestClient_CheckUser(t *testing.T) {
	c := newTestClient(t, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"query": "ping"}`, string(body))
		writeJSON(w, http.StatusOK, `{"result": "ping"}`)
	}))

	res, err := c.CheckUser(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "ping", res.Result)
}

func TestClient_ScopeHeaders(t *testing.T) {
	cfg := &Config{
		SelectUser: "dbmid:member",
		PathRoot:   PathRootNamespaceID("123456"),
	}
	c := newTestClient(t, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dbmid:member", r.Header.Get(HeaderSelectUser))

		var root PathRoot
		if assert.NoError(t, json.Unmarshal([]byte(r.Header.Get(HeaderPathRoot)), &root)) {
			assert.Equal(t, "namespace_id", root.Tag)
			assert.Equal(t, "123456", root.NamespaceID)
		}

		if r.URL.Path == "/files/download" {
			w.Header().Set(HeaderAPIResult, `{"name": "a.txt", "size": 2}`)
			io.WriteString(w, "hi")
			return
		}
		writeJSON(w, http.StatusOK, `{"result": "ok"}`)
	}))

	_, err := c.CheckUser(context.Background(), "ok")
	require.NoError(t, err)

	_, body, err := c.Files.Download(context.Background(), "/a.txt")
	require.NoError(t, err)
	body.Close()
}

func TestClient_AutoRefresh_ReplaysCall(t *testing.T) {
	var apiCalls, tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "r1", r.Form.Get("refresh_token"))
		writeToken(w, "fresh-token")
	})
	mux.HandleFunc("/check/user", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			writeAPIError(w, http.StatusUnauthorized, TagExpiredAccessToken)
			return
		}
		writeJSON(w, http.StatusOK, `{"result": "ok"}`)
	})

	cfg := &Config{
		AppKey:       "key",
		AccessToken:  "stale-token",
		RefreshToken: "r1",
		AutoRefresh:  true,
	}
	c := newTestClient(t, cfg, mux)

	res, err := c.CheckUser(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Result)

	assert.Equal(t, int32(2), apiCalls.Load(), "expired attempt plus one replay")
	assert.Equal(t, int32(1), tokenCalls.Load())
	assert.Equal(t, "fresh-token", c.Session.AccessToken())
}

func TestClient_AutoRefresh_Proactive(t *testing.T) {
	t.Run("no access token yet", func(t *testing.T) {
		var apiCalls, tokenCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
			tokenCalls.Add(1)
			writeToken(w, "fresh-token")
		})
		mux.HandleFunc("/check/user", func(w http.ResponseWriter, r *http.Request) {
			apiCalls.Add(1)
			assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"result": "ok"}`)
		})

		cfg := &Config{AppKey: "key", RefreshToken: "r1", AutoRefresh: true}
		c := newTestClient(t, cfg, mux)

		_, err := c.CheckUser(context.Background(), "ok")
		require.NoError(t, err)
		assert.Equal(t, int32(1), tokenCalls.Load())
		assert.Equal(t, int32(1), apiCalls.Load())
	})

	t.Run("expired by clock", func(t *testing.T) {
		var tokenCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
			tokenCalls.Add(1)
			writeToken(w, "fresh-token")
		})
		mux.HandleFunc("/check/user", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"result": "ok"}`)
		})

		cfg := &Config{
			AppKey:       "key",
			AccessToken:  "stale-token",
			RefreshToken: "r1",
			TokenExpiry:  time.Now().Add(-time.Minute),
			AutoRefresh:  true,
		}
		c := newTestClient(t, cfg, mux)

		_, err := c.CheckUser(context.Background(), "ok")
		require.NoError(t, err)
		assert.Equal(t, int32(1), tokenCalls.Load())
	})
}

func TestClient_RefreshFailure_IsFatal(t *testing.T) {
	var apiCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error": "invalid_grant", "error_description": "refresh token is invalid"}`)
	})
	mux.HandleFunc("/check/user", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, TagExpiredAccessToken)
	})

	cfg := &Config{
		AppKey:       "key",
		AccessToken:  "stale-token",
		RefreshToken: "r1",
		AutoRefresh:  true,
	}
	c := newTestClient(t, cfg, mux)

	_, err := c.CheckUser(context.Background(), "ok")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshFailed)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.IsInvalidGrant())
	assert.Equal(t, int32(1), apiCalls.Load(), "failed refresh must not replay the call")
}

func TestClient_RateLimit_WaitsAndRetries(t *testing.T) {
	var apiCalls atomic.Int32
	c := newTestClient(t, &Config{AutoRetry: true}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiCalls.Add(1) == 1 {
			w.Header().Set(HeaderRetryAfter, "1")
			writeAPIError(w, http.StatusTooManyRequests, TagTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, `{"result": "ok"}`)
	}))

	start := time.Now()
	_, err := c.CheckUser(context.Background(), "ok")
	require.NoError(t, err)

	assert.Equal(t, int32(2), apiCalls.Load())
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "must honor Retry-After")
}

func TestClient_RateLimit_DisabledPropagates(t *testing.T) {
	var apiCalls atomic.Int32
	c := newTestClient(t, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.Header().Set(HeaderRetryAfter, "2")
		writeAPIError(w, http.StatusTooManyRequests, TagTooManyRequests)
	}))

	_, err := c.CheckUser(context.Background(), "ok")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, 2*time.Second, apiErr.RetryAfter)
	assert.Equal(t, int32(1), apiCalls.Load())
}

func TestClient_RetriesAreBounded(t *testing.T) {
	var apiCalls, tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		writeToken(w, "still-rejected")
	})
	mux.HandleFunc("/check/user", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, TagExpiredAccessToken)
	})

	cfg := &Config{
		AppKey:         "key",
		AccessToken:    "stale-token",
		RefreshToken:   "r1",
		AutoRefresh:    true,
		MaxCallRetries: 2,
	}
	c := newTestClient(t, cfg, mux)

	_, err := c.CheckUser(context.Background(), "ok")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsExpiredAccessToken())

	assert.Equal(t, int32(3), apiCalls.Load(), "initial attempt plus MaxCallRetries replays")
	assert.Equal(t, int32(2), tokenCalls.Load())
}
