package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the client.
type Config struct {
	// APIBaseURL is the versioned base path of the MacroMate service,
	// e.g. "http://localhost:8000/api/v1".
	APIBaseURL string

	// StateDir holds client-local durable state (auth token, recipe cache).
	StateDir string

	HTTPTimeout time.Duration

	// Telegram Config (optional for the CLI, required for the bot)
	TelegramBotToken    string
	TelegramAllowUserID int64
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first if present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	apiBaseURL := os.Getenv("MACROMATE_API_URL")
	if apiBaseURL == "" {
		return nil, fmt.Errorf("MACROMATE_API_URL environment variable not set")
	}

	stateDir := getEnv("MACROMATE_STATE_DIR", "data")

	timeout := 30 * time.Second
	if raw := os.Getenv("MACROMATE_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MACROMATE_HTTP_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	var telegramAllowUserID int64
	if raw := os.Getenv("TELEGRAM_ALLOW_USER_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_ID %q: %w", raw, err)
		}
		telegramAllowUserID = id
	}

	return &Config{
		APIBaseURL:          apiBaseURL,
		StateDir:            stateDir,
		HTTPTimeout:         timeout,
		TelegramBotToken:    telegramBotToken,
		TelegramAllowUserID: telegramAllowUserID,
	}, nil
}

// TokenPath is the well-known location of the persisted auth token.
func (c *Config) TokenPath() string {
	return filepath.Join(c.StateDir, "token")
}

// CacheDBPath is the location of the local recipe cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.StateDir, "cache.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
