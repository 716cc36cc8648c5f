package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultMenuAPIURL = "http://localhost:8000/generate-menu"
	DefaultPort       = "8080"
)

// Config holds the configuration for the application.
type Config struct {
	MenuAPIURL     string
	MenuAPIKey     string // optional "id:hexsecret" used to sign outbound calls
	MenuAPITimeout time.Duration

	Port       string
	SessionTTL time.Duration

	// Empty disables generation metrics.
	MetricsDBPath string

	// Telegram alerts (optional)
	TelegramBotToken    string
	TelegramAlertChatID int64

	LogLevel string
}

// NewFromEnv creates a new Config object from environment variables. An
// optional .env file (or the file named by ENV_FILE) is loaded first and
// never overrides variables already set.
func NewFromEnv() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("menu_api_url", DefaultMenuAPIURL)
	v.SetDefault("menu_api_timeout", "60s")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("log_level", "info")

	menuURL := strings.TrimSpace(v.GetString("menu_api_url"))
	u, err := url.Parse(menuURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("MENU_API_URL must be an absolute http(s) URL, got %q", menuURL)
	}

	apiKey := strings.TrimSpace(v.GetString("menu_api_key"))
	if apiKey != "" && len(strings.Split(apiKey, ":")) != 2 {
		return nil, fmt.Errorf("MENU_API_KEY has invalid format: expected id:secret")
	}

	timeout, err := parseDuration(v, "menu_api_timeout")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := parseDuration(v, "session_ttl")
	if err != nil {
		return nil, err
	}

	telegramBotToken := v.GetString("telegram_bot_token")
	var telegramChatID int64
	if raw := v.GetString("telegram_alert_chat_id"); raw != "" {
		telegramChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALERT_CHAT_ID must be an integer: %w", err)
		}
	}
	if telegramBotToken != "" && telegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_ALERT_CHAT_ID environment variable not set")
	}

	return &Config{
		MenuAPIURL:          menuURL,
		MenuAPIKey:          apiKey,
		MenuAPITimeout:      timeout,
		Port:                v.GetString("port"),
		SessionTTL:          sessionTTL,
		MetricsDBPath:       v.GetString("metrics_db_path"),
		TelegramBotToken:    telegramBotToken,
		TelegramAlertChatID: telegramChatID,
		LogLevel:            strings.ToLower(v.GetString("log_level")),
	}, nil
}

// TelegramEnabled reports whether failure alerts should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramAlertChatID != 0
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", strings.ToUpper(key), raw)
	}
	return d, nil
}

func loadDotEnv() error {
	path := ".env"
	if p := strings.TrimSpace(os.Getenv("ENV_FILE")); p != "" {
		path = p
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
