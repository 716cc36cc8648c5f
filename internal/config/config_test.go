package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	// Point ENV_FILE at a file that does not exist so a developer's .env
	// never leaks into these cases.
	setEnv := func(t *testing.T, key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}
	clean := func(t *testing.T) {
		t.Helper()
		setEnv(t, "ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		for _, key := range []string{
			"MENU_API_URL", "MENU_API_KEY", "MENU_API_TIMEOUT", "PORT", "SESSION_TTL",
			"METRICS_DB_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_ALERT_CHAT_ID", "LOG_LEVEL",
		} {
			setEnv(t, key, "")
			os.Unsetenv(key)
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		clean(t)

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, DefaultMenuAPIURL, cfg.MenuAPIURL)
		assert.Equal(t, 60*time.Second, cfg.MenuAPITimeout)
		assert.Equal(t, DefaultPort, cfg.Port)
		assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
		assert.Empty(t, cfg.MetricsDBPath)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.TelegramEnabled())
	})

	t.Run("Success", func(t *testing.T) {
		clean(t)
		setEnv(t, "MENU_API_URL", "https://menus.example.com/generate-menu")
		setEnv(t, "MENU_API_KEY", "kid1:deadbeef")
		setEnv(t, "MENU_API_TIMEOUT", "15s")
		setEnv(t, "PORT", "9090")
		setEnv(t, "METRICS_DB_PATH", "data/metrics.db")
		setEnv(t, "TELEGRAM_BOT_TOKEN", "123:abc")
		setEnv(t, "TELEGRAM_ALERT_CHAT_ID", "-100200")
		setEnv(t, "LOG_LEVEL", "DEBUG")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "https://menus.example.com/generate-menu", cfg.MenuAPIURL)
		assert.Equal(t, "kid1:deadbeef", cfg.MenuAPIKey)
		assert.Equal(t, 15*time.Second, cfg.MenuAPITimeout)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "data/metrics.db", cfg.MetricsDBPath)
		assert.Equal(t, int64(-100200), cfg.TelegramAlertChatID)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.TelegramEnabled())
	})

	t.Run("DotEnvFile", func(t *testing.T) {
		clean(t)
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("MENU_API_URL=http://dotenv.test/menu\n"), 0o644))
		setEnv(t, "ENV_FILE", path)
		t.Cleanup(func() { os.Unsetenv("MENU_API_URL") })

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "http://dotenv.test/menu", cfg.MenuAPIURL)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		clean(t)
		setEnv(t, "MENU_API_URL", "localhost:8000")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MENU_API_URL")
	})

	t.Run("InvalidAPIKey", func(t *testing.T) {
		clean(t)
		setEnv(t, "MENU_API_KEY", "no-colon")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "MENU_API_KEY has invalid format: expected id:secret", err.Error())
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		clean(t)
		setEnv(t, "MENU_API_TIMEOUT", "soon")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MENU_API_TIMEOUT")
	})

	t.Run("TelegramTokenWithoutChat", func(t *testing.T) {
		clean(t)
		setEnv(t, "TELEGRAM_BOT_TOKEN", "123:abc")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "TELEGRAM_ALERT_CHAT_ID environment variable not set", err.Error())
	})
}
