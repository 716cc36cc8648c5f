package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// DefaultSendTimeout bounds every Bot API request made by NewTelegram.
const DefaultSendTimeout = 10 * time.Second

// Telegram forwards failures to an operator chat. Success notices are
// dropped.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger

	pending sync.WaitGroup
}

// NewTelegram authorizes the bot token against the public Bot API.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, chatID, tgbotapi.APIEndpoint, nil, logger)
}

// NewTelegramWithEndpoint targets a custom Bot API endpoint, such as a local
// bot server. endpoint takes the token and method as %s verbs. A nil client
// gets DefaultSendTimeout.
func NewTelegramWithEndpoint(token string, chatID int64, endpoint string, client *http.Client, logger *zap.Logger) (*Telegram, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultSendTimeout}
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram alerts enabled", zap.String("bot", api.Self.UserName), zap.Int64("chat_id", chatID))

	return &Telegram{api: api, chatID: chatID, logger: logger}, nil
}

// Notify sends failures in the background and returns immediately, so a slow
// Bot API never stalls the caller. Delivery errors are logged.
func (t *Telegram) Notify(_ context.Context, n Notification) error {
	if n.Level != LevelFailure {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatAlert(n))
	msg.ParseMode = tgbotapi.ModeMarkdown

	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		if _, err := t.api.Send(msg); err != nil {
			t.logger.Warn("failed to send telegram alert", zap.Error(err))
		}
	}()
	return nil
}

// Close waits for alerts still being sent. Each one is bounded by the HTTP
// client's timeout.
func (t *Telegram) Close() error {
	t.pending.Wait()
	return nil
}

// FormatAlert renders n as a Markdown message.
func FormatAlert(n Notification) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("❌ *%s*\n", n.Title))
	if n.Detail != "" {
		safe := strings.ReplaceAll(n.Detail, "`", "'")
		sb.WriteString(fmt.Sprintf("```\n%s\n```\n", safe))
	}
	if !n.At.IsZero() {
		sb.WriteString(fmt.Sprintf("_%s_", n.At.UTC().Format("2006-01-02 15:04:05 UTC")))
	}
	return strings.TrimRight(sb.String(), "\n")
}
