package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "postgres://u:p@localhost:5432/portal")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, FeedPolicyPersonal, cfg.FeedPolicy)
	assert.Equal(t, MediaBackendLocal, cfg.MediaBackend)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "sessionid", cfg.SessionCookieName)
	assert.True(t, cfg.IsDevelopment())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "postgres://u:p@localhost:5432/portal")
	t.Setenv("FEED_POLICY", "global")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, FeedPolicyGlobal, cfg.FeedPolicy)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SessionCookieSecure)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 20, cfg.AuthRateLimit, "invalid ints fall back to the default")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			PostgresConnStr: "postgres://localhost/portal",
			FeedPolicy:      FeedPolicyPersonal,
			MediaBackend:    MediaBackendLocal,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing postgres", mutate: func(c *Config) { c.PostgresConnStr = "" }, wantErr: "POSTGRES_CONN_STR"},
		{name: "unknown feed policy", mutate: func(c *Config) { c.FeedPolicy = "trending" }, wantErr: "FEED_POLICY"},
		{name: "gridfs without mongo", mutate: func(c *Config) { c.MediaBackend = MediaBackendGridFS }, wantErr: "MONGO_URI"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.MediaBackend = MediaBackendGCS }, wantErr: "GCS_BUCKET"},
		{name: "unknown script", mutate: func(c *Config) { c.ContentScript = "klingon" }, wantErr: "CONTENT_SCRIPT"},
		{name: "telugu script", mutate: func(c *Config) { c.ContentScript = "telugu" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
