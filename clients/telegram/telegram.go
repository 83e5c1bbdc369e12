package telegram

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"tradedash/clients/notifier"
	"tradedash/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TelegramClient sends system notifications through the Telegram Bot API.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger   *zap.Logger
	botToken string
	chatID   string
	isProd   bool
	client   *resty.Client
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	chatID := cfg.Telegram.BetaChatID
	if cfg.IsProd {
		chatID = cfg.Telegram.ProdChatID
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		logger.Warn("TELEGRAM_BOT_KEY not set, Telegram notifications disabled")
		return &TelegramClient{
			logger: logger,
			chatID: chatID,
			isProd: cfg.IsProd,
		}
	}

	apiURL := cfg.Telegram.APIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}

	client := resty.New()
	client.SetBaseURL(apiURL + "/bot" + token)
	client.SetTimeout(10 * time.Second)

	logger.Info("telegram bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("chatID", chatID),
	)

	return &TelegramClient{
		logger:   logger,
		botToken: token,
		chatID:   chatID,
		isProd:   cfg.IsProd,
		client:   client,
	}
}

// Enabled reports whether the client can deliver anything.
func (tc *TelegramClient) Enabled() bool {
	return tc.botToken != "" && tc.chatID != ""
}

// Notify sends the alert. The retraction deletes the message.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) Notify(alert notifier.Alert) notifier.Retraction {
	if !tc.Enabled() {
		tc.logger.Debug("telegram not configured, skipping notification")
		return notifier.NoRetraction
	}

	messageID, err := tc.sendMessage(buildMessage(alert))
	if err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
		return notifier.NoRetraction
	}

	tc.logger.Info("sent telegram notification",
		zap.String("title", alert.Title),
		zap.Int64("messageID", messageID),
	)

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := tc.deleteMessage(messageID); err != nil {
				tc.logger.Warn("failed to retract telegram notification",
					zap.Int64("messageID", messageID),
					zap.Error(err),
				)
			}
		})
	}
}

func buildMessage(alert notifier.Alert) string {
	var sb strings.Builder
	sb.WriteString("*")
	if alert.Icon != "" {
		sb.WriteString(alert.Icon)
		sb.WriteString(" ")
	}
	sb.WriteString(escapeMarkdown(alert.Title))
	sb.WriteString("*")
	if alert.Message != "" {
		sb.WriteString("\n")
		sb.WriteString(escapeMarkdown(notifier.SingleLine(alert.Message)))
	}
	return sb.String()
}

func (tc *TelegramClient) sendMessage(text string) (int64, error) {
	resp, err := tc.call("sendMessage", map[string]any{
		"chat_id":    tc.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return 0, err
	}
	return resp.Result.MessageID, nil
}

func (tc *TelegramClient) deleteMessage(messageID int64) error {
	_, err := tc.call("deleteMessage", map[string]any{
		"chat_id":    tc.chatID,
		"message_id": messageID,
	})
	return err
}

func (tc *TelegramClient) call(method string, payload map[string]any) (*apiResponse, error) {
	resp, err := tc.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("telegram API returned status %d", resp.StatusCode())
	}
	if !resp.IsSuccess() || !out.OK {
		return nil, fmt.Errorf("telegram %s failed: status %d: %s", method, resp.StatusCode(), out.Description)
	}

	return &out, nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}

// escapeMarkdown escapes special characters for Telegram Markdown.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
