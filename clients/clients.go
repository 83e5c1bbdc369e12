package clients

import (
	"tradedash/clients/backend"
	"tradedash/clients/discord"
	"tradedash/clients/notifier"
	"tradedash/clients/stream"
	"tradedash/clients/telegram"
	"tradedash/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Backend  *backend.BackendClient
	Stream   *stream.StreamClient
	Discord  *discord.DiscordClient
	Telegram *telegram.TelegramClient
	Notifier notifier.Notifier // Combined notifier for all channels
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	c := &Clients{
		Logger:  logger,
		Backend: backend.NewBackendClient(logger, cfg),
	}

	// The push stream and system notification channels are only needed
	// when the full notification layer is enabled.
	if cfg.Notifications.Backend == config.NotificationBackendFull {
		c.Stream = stream.NewStreamClient(logger, cfg)
		c.Discord = discord.NewDiscordClient(logger, cfg)
		c.Telegram = telegram.NewTelegramClient(logger, cfg)
		c.Notifier = notifier.NewMultiNotifier(c.Discord, c.Telegram)
	}

	return c
}

// Close releases the notification channels and any open stream.
func (c *Clients) Close() error {
	var lastErr error
	if c.Stream != nil {
		if err := c.Stream.Close(); err != nil {
			lastErr = err
		}
	}
	if c.Notifier != nil {
		if err := c.Notifier.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
