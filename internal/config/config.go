// Package config loads server configuration from environment variables.
//
// LOADING ORDER:
//  1. An optional .env file in the working directory (godotenv). Variables that
//     are already set in the real environment win; godotenv never overwrites.
//  2. os.Getenv for each key, falling back to a default.
//
// Everything is parsed up front so a typo in SYNC_LATENCY fails at startup,
// not halfway through the first sync.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/social-sync/internal/logging"
)

// devSessionSecret is used only when SESSION_SECRET is unset.
// Load reports this through Config.InsecureSecret so main can warn about it.
const devSessionSecret = "social-sync-dev-secret-change-me"

// Config holds every tunable of the server.
type Config struct {
	Port   int
	DBPath string
	AppURL string

	SessionSecret      string
	SessionTTL         time.Duration
	SessionCheckPeriod time.Duration
	CookieSecure       bool
	InsecureSecret     bool

	SyncLatency   time.Duration
	SyncItemDelay time.Duration

	TokenRefreshSchedule string

	AuthRatePerMin int
	AuthRateBurst  int

	LogLevel  string
	LogFormat string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var (
		cfg Config
		err error
	)

	if cfg.Port, err = getenvInt("PORT", 8080); err != nil {
		return Config{}, err
	}
	cfg.DBPath = getenvDefault("DB_PATH", "data/socialsync.db")
	cfg.AppURL = getenvDefault("APP_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
		cfg.InsecureSecret = true
	}
	if len(cfg.SessionSecret) < 16 {
		return Config{}, errors.New("SESSION_SECRET must be at least 16 characters")
	}

	if cfg.SessionTTL, err = getenvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SessionCheckPeriod, err = getenvDuration("SESSION_CHECK_PERIOD", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = getenvBool("COOKIE_SECURE", false); err != nil {
		return Config{}, err
	}

	if cfg.SyncLatency, err = getenvDuration("SYNC_LATENCY", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SyncItemDelay, err = getenvDuration("SYNC_ITEM_DELAY", 500*time.Millisecond); err != nil {
		return Config{}, err
	}

	cfg.TokenRefreshSchedule = getenvDefault("TOKEN_REFRESH_SCHEDULE", "@every 10m")

	if cfg.AuthRatePerMin, err = getenvInt("AUTH_RATE_PER_MIN", 10); err != nil {
		return Config{}, err
	}
	if cfg.AuthRateBurst, err = getenvInt("AUTH_RATE_BURST", 5); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "text")

	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *slog.Logger {
	return logging.New(os.Stdout, c.LogLevel, c.LogFormat)
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", k, v, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", k, v)
	}
	return n, nil
}

func getenvDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", k, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", k, v)
	}
	return d, nil
}

func getenvBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", k, v, err)
	}
	return b, nil
}
