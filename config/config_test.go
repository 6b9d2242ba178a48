package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTTL)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.RevokeSessionsOnPasswordChange)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("JWT_REFRESH_TTL", "72h")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test, ,http://b.test ")
	t.Setenv("REVOKE_SESSIONS_ON_PASSWORD_CHANGE", "true")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTTL)
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.RevokeSessionsOnPasswordChange)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")
	t.Setenv("DB_MAX_CONNS", "many")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTAccessSecret:  "a",
			JWTRefreshSecret: "r",
			AccessTTL:        time.Minute,
			RefreshTTL:       time.Hour,
			StoreDriver:      "memory",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing secret", func(c *Config) { c.JWTRefreshSecret = "" }},
		{"shared secret", func(c *Config) { c.JWTRefreshSecret = c.JWTAccessSecret }},
		{"zero ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"refresh shorter than access", func(c *Config) { c.RefreshTTL = time.Second }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }},
	}

	require.NoError(t, base().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "db", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", c.PostgresDSN())
}

func TestLoad_MediaDefaults(t *testing.T) {
	t.Setenv("MEDIA_DIR", "")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.test/")

	cfg := Load()

	assert.Equal(t, "data/media", cfg.MediaDir)
	assert.Equal(t, "https://api.example.test", cfg.PublicBaseURL)
}
