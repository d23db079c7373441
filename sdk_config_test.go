package dropbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("access token only", func(t *testing.T) {
		cfg := &Config{AccessToken: "tok"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("refresh token with app key", func(t *testing.T) {
		cfg := &Config{AppKey: "key", RefreshToken: "r1"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("refresh token without app key", func(t *testing.T) {
		cfg := &Config{RefreshToken: "r1"}
		assert.ErrorIs(t, cfg.Validate(), ErrNoAppKey)
	})

	t.Run("no token material", func(t *testing.T) {
		cfg := &Config{AppKey: "key", AppSecret: "secret"}
		assert.ErrorIs(t, cfg.Validate(), ErrNoAccessToken)
	})
}

func TestConfig_ChunkSizeClamped(t *testing.T) {
	assert.Equal(t, MaxChunkSize, (&Config{}).chunkSize())
	assert.Equal(t, MaxChunkSize, (&Config{ChunkSize: -1}).chunkSize())
	assert.Equal(t, MaxChunkSize, (&Config{ChunkSize: MaxChunkSize + 1}).chunkSize())
	assert.Equal(t, int64(4096), (&Config{ChunkSize: 4096}).chunkSize())
}

func TestConfig_CallRetriesDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxCallRetries, (&Config{}).callRetries())
	assert.Equal(t, 5, (&Config{MaxCallRetries: 5}).callRetries())
}

func TestConfig_EndpointDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultAuthorizeURL, cfg.authorizeURL())
	assert.Equal(t, DefaultTokenURL, cfg.tokenURL())
	assert.Equal(t, DefaultAPIURL, cfg.apiURL())
	assert.Equal(t, DefaultContentURL, cfg.contentURL())

	cfg = &Config{APIURL: "http://127.0.0.1:8080"}
	assert.Equal(t, "http://127.0.0.1:8080", cfg.apiURL())
}
