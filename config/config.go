package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Renderer names accepted by DashboardConfig.Renderer.
const (
	RendererTerminal = "terminal"
	RendererWeb      = "web"
)

// Notification backend names accepted by NotificationsConfig.Backend.
const (
	NotificationBackendFull = "full"
	NotificationBackendNull = "null"
)

// Permission values accepted by NotificationsConfig.Permission.
const (
	PermissionDefault = "default"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// Trading bot backend API
	Backend BackendConfig `json:"backend"`

	// Poller and rendering
	Dashboard DashboardConfig `json:"dashboard"`

	// Toasts, stream listener and system notifications
	Notifications NotificationsConfig `json:"notifications"`

	// Discord
	Discord DiscordConfig `json:"discord"`

	// Telegram
	Telegram TelegramConfig `json:"telegram"`

	// Web renderer server
	Web WebConfig `json:"web"`
}

// BackendConfig holds the trading bot API location.
type BackendConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// DashboardConfig holds poller and render configuration.
type DashboardConfig struct {
	RefreshInterval     time.Duration `json:"refresh_interval"`
	ExportReenableDelay time.Duration `json:"export_reenable_delay"` // Export button cooldown
	Renderer            string        `json:"renderer"`              // "terminal" or "web"
	ExchangeURLTemplate string        `json:"exchange_url_template"` // {symbol} is replaced by the pair without "/"
	ExportDir           string        `json:"export_dir"`            // Where the terminal renderer writes CSV downloads
}

// NotificationsConfig holds notification layer configuration.
type NotificationsConfig struct {
	Backend        string        `json:"backend"` // "full" or "null"
	ToastTTL       time.Duration `json:"toast_ttl"`
	ToastFade      time.Duration `json:"toast_fade"`
	SystemTTL      time.Duration `json:"system_ttl"` // System notifications are retracted after this
	ReconnectDelay time.Duration `json:"reconnect_delay"`
	Permission     string        `json:"permission"` // Initial system notification permission
	Sound          bool          `json:"sound"`
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id"`
	APIURL     string `json:"api_url"`
}

// WebConfig holds web renderer configuration.
type WebConfig struct {
	Port int `json:"port"`
}

// Clone creates a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ToJSON serializes the config to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd: false,
		Backend: BackendConfig{
			BaseURL: "http://localhost:5005",
			Timeout: 30 * time.Second,
		},
		Dashboard: DashboardConfig{
			RefreshInterval:     5 * time.Second,
			ExportReenableDelay: 5 * time.Second,
			Renderer:            RendererTerminal,
			ExchangeURLTemplate: "https://www.bitget.site/fr/futures/usdt/{symbol}",
			ExportDir:           ".",
		},
		Notifications: NotificationsConfig{
			Backend:        NotificationBackendFull,
			ToastTTL:       7 * time.Second,
			ToastFade:      300 * time.Millisecond,
			SystemTTL:      10 * time.Second,
			ReconnectDelay: 5 * time.Second,
			Permission:     PermissionDefault,
			Sound:          true,
		},
		Telegram: TelegramConfig{
			APIURL: "https://api.telegram.org",
		},
		Web: WebConfig{
			Port: 8090,
		},
	}
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	d := Defaults()
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Backend: BackendConfig{
			BaseURL: strings.TrimRight(envString("BACKEND_URL", d.Backend.BaseURL), "/"),
			Timeout: envDuration("BACKEND_TIMEOUT", d.Backend.Timeout),
		},

		Dashboard: DashboardConfig{
			RefreshInterval:     envDuration("REFRESH_INTERVAL", d.Dashboard.RefreshInterval),
			ExportReenableDelay: envDuration("EXPORT_REENABLE_DELAY", d.Dashboard.ExportReenableDelay),
			Renderer:            strings.ToLower(envString("RENDERER", d.Dashboard.Renderer)),
			ExchangeURLTemplate: envString("EXCHANGE_URL_TEMPLATE", d.Dashboard.ExchangeURLTemplate),
			ExportDir:           envString("EXPORT_DIR", d.Dashboard.ExportDir),
		},

		Notifications: NotificationsConfig{
			Backend:        strings.ToLower(envString("NOTIFICATIONS_BACKEND", d.Notifications.Backend)),
			ToastTTL:       envDuration("TOAST_TTL", d.Notifications.ToastTTL),
			ToastFade:      envDuration("TOAST_FADE", d.Notifications.ToastFade),
			SystemTTL:      envDuration("SYSTEM_NOTIFICATION_TTL", d.Notifications.SystemTTL),
			ReconnectDelay: envDuration("STREAM_RECONNECT_DELAY", d.Notifications.ReconnectDelay),
			Permission:     strings.ToLower(envString("NOTIFICATION_PERMISSION", d.Notifications.Permission)),
			Sound:          envBoolDefault("NOTIFICATION_SOUND", d.Notifications.Sound),
		},

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken:   envString("TELEGRAM_BOT_KEY", ""),
			ProdChatID: envString("TELEGRAM_PROD_CHAT_ID", ""),
			BetaChatID: envString("TELEGRAM_BETA_CHAT_ID", ""),
			APIURL:     strings.TrimRight(envString("TELEGRAM_API_URL", d.Telegram.APIURL), "/"),
		},

		Web: WebConfig{
			Port: envInt("WEB_PORT", d.Web.Port),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}
