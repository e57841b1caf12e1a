package config

import (
	"os"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("MACROMATE_API_URL", "http://macromate.test/api/v1")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.APIBaseURL != "http://macromate.test/api/v1" {
			t.Errorf("Expected APIBaseURL to be 'http://macromate.test/api/v1', got '%s'", cfg.APIBaseURL)
		}
		if cfg.StateDir != "data" {
			t.Errorf("Expected default StateDir to be 'data', got '%s'", cfg.StateDir)
		}
		if cfg.HTTPTimeout != 30*time.Second {
			t.Errorf("Expected default HTTPTimeout to be 30s, got %v", cfg.HTTPTimeout)
		}
	})

	t.Run("MissingAPIURL", func(t *testing.T) {
		os.Unsetenv("MACROMATE_API_URL")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing MACROMATE_API_URL, got nil")
		}
		expectedError := "MACROMATE_API_URL environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("MACROMATE_API_URL", "http://macromate.test/api/v1")
		t.Setenv("MACROMATE_STATE_DIR", "/tmp/macromate")
		t.Setenv("MACROMATE_HTTP_TIMEOUT", "5s")
		t.Setenv("TELEGRAM_ALLOW_USER_ID", "42")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.StateDir != "/tmp/macromate" {
			t.Errorf("Expected StateDir '/tmp/macromate', got '%s'", cfg.StateDir)
		}
		if cfg.HTTPTimeout != 5*time.Second {
			t.Errorf("Expected HTTPTimeout 5s, got %v", cfg.HTTPTimeout)
		}
		if cfg.TelegramAllowUserID != 42 {
			t.Errorf("Expected TelegramAllowUserID 42, got %d", cfg.TelegramAllowUserID)
		}
		if cfg.TokenPath() != "/tmp/macromate/token" {
			t.Errorf("Expected token path '/tmp/macromate/token', got '%s'", cfg.TokenPath())
		}
	})

	t.Run("BadTimeout", func(t *testing.T) {
		t.Setenv("MACROMATE_API_URL", "http://macromate.test/api/v1")
		t.Setenv("MACROMATE_HTTP_TIMEOUT", "soon")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for invalid MACROMATE_HTTP_TIMEOUT, got nil")
		}
	})

	t.Run("BadAllowUserID", func(t *testing.T) {
		t.Setenv("MACROMATE_API_URL", "http://macromate.test/api/v1")
		t.Setenv("TELEGRAM_ALLOW_USER_ID", "not-a-number")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for invalid TELEGRAM_ALLOW_USER_ID, got nil")
		}
	})
}
