package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// can't leak into the assertions. t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_PATH", "APP_URL", "SESSION_SECRET", "SESSION_TTL",
		"SESSION_CHECK_PERIOD", "COOKIE_SECURE", "SYNC_LATENCY", "SYNC_ITEM_DELAY",
		"TOKEN_REFRESH_SCHEDULE", "AUTH_RATE_PER_MIN", "AUTH_RATE_BURST",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/socialsync.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:8080", cfg.AppURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2*time.Second, cfg.SyncLatency)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncItemDelay)
	assert.Equal(t, "@every 10m", cfg.TokenRefreshSchedule)
	assert.True(t, cfg.InsecureSecret, "missing SESSION_SECRET should be flagged")
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_SECRET", "a-very-long-test-secret")
	t.Setenv("SYNC_LATENCY", "0s")
	t.Setenv("SYNC_ITEM_DELAY", "10ms")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://localhost:9090", cfg.AppURL)
	assert.Equal(t, "a-very-long-test-secret", cfg.SessionSecret)
	assert.False(t, cfg.InsecureSecret)
	assert.Equal(t, time.Duration(0), cfg.SyncLatency)
	assert.Equal(t, 10*time.Millisecond, cfg.SyncItemDelay)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "eighty"},
		{"negative rate", "AUTH_RATE_PER_MIN", "-1"},
		{"bad duration", "SYNC_LATENCY", "soon"},
		{"bad bool", "COOKIE_SECURE", "maybe"},
		{"short secret", "SESSION_SECRET", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json"}
	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))

	cfg = Config{LogLevel: "error"}
	logger = cfg.NewLogger()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
}
