package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default tuning values, used when the corresponding env vars are unset.
const (
	DefaultRateLimitPerMinute = 60
	DefaultMinRequestSpacing  = 100 * time.Millisecond
	DefaultMaxRetries         = 3
)

// Config holds runtime configuration sourced from the environment.
type Config struct {
	// SpreadsheetID is the id of the spreadsheet used as the remote store.
	SpreadsheetID string

	// OAuthToken is a pre-obtained OAuth2 access token for the Sheets API.
	// Token refresh flows live outside this application.
	OAuthToken string

	// RateLimitPerMinute caps outgoing Sheets API calls per trailing minute.
	RateLimitPerMinute int

	// MinRequestSpacing is the minimum gap enforced between consecutive calls.
	MinRequestSpacing time.Duration

	// MaxRetries bounds retry attempts for transient API failures.
	MaxRetries int

	// LogLevel filters log output ("debug", "info", "warn", "error").
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the environment.
// Only the OAuth token is required up front; the spreadsheet id may be selected
// later through the auth session.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		SpreadsheetID:      os.Getenv("SHEETBUDGET_SPREADSHEET_ID"),
		OAuthToken:         os.Getenv("SHEETBUDGET_OAUTH_TOKEN"),
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		MinRequestSpacing:  DefaultMinRequestSpacing,
		MaxRetries:         DefaultMaxRetries,
		LogLevel:           os.Getenv("SHEETBUDGET_LOG_LEVEL"),
	}

	if cfg.OAuthToken == "" {
		return nil, fmt.Errorf("SHEETBUDGET_OAUTH_TOKEN is not set")
	}

	if v := os.Getenv("SHEETBUDGET_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SHEETBUDGET_RATE_LIMIT_PER_MINUTE: %q", v)
		}
		cfg.RateLimitPerMinute = n
	}

	if v := os.Getenv("SHEETBUDGET_MIN_REQUEST_SPACING_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid SHEETBUDGET_MIN_REQUEST_SPACING_MS: %q", v)
		}
		cfg.MinRequestSpacing = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("SHEETBUDGET_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid SHEETBUDGET_MAX_RETRIES: %q", v)
		}
		cfg.MaxRetries = n
	}

	return cfg, nil
}
