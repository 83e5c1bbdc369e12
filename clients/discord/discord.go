package discord

import (
	"fmt"
	"sync"
	"time"
	"tradedash/clients/notifier"
	"tradedash/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// messageAPI is the slice of *discordgo.Session the client uses.
type messageAPI interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// DiscordClient posts system notifications to a Discord channel.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	api       messageAPI
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord notifications disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		api:       session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// Enabled reports whether the client can deliver anything.
func (dc *DiscordClient) Enabled() bool {
	return dc.api != nil && dc.channelID != ""
}

// Notify posts the alert as an embed. The retraction deletes the message.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) Notify(alert notifier.Alert) notifier.Retraction {
	if !dc.Enabled() {
		dc.logger.Debug("discord not configured, skipping notification")
		return notifier.NoRetraction
	}

	msg, err := dc.api.ChannelMessageSendEmbed(dc.channelID, dc.buildEmbed(alert))
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return notifier.NoRetraction
	}

	dc.logger.Info("sent discord notification",
		zap.String("title", alert.Title),
		zap.String("messageID", msg.ID),
	)

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := dc.api.ChannelMessageDelete(dc.channelID, msg.ID); err != nil {
				dc.logger.Warn("failed to retract discord notification",
					zap.String("messageID", msg.ID),
					zap.Error(err),
				)
			}
		})
	}
}

func (dc *DiscordClient) buildEmbed(alert notifier.Alert) *discordgo.MessageEmbed {
	title := alert.Title
	if alert.Icon != "" {
		title = alert.Icon + " " + title
	}

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: notifier.SingleLine(alert.Message),
		Color:       categoryColor(alert.Category),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("tradedash * %s", ts.Format("2006-01-02 15:04:05")),
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}

func categoryColor(c notifier.Category) int {
	switch c {
	case notifier.CategorySuccess:
		return 0x2ECC71
	case notifier.CategoryError:
		return 0xE74C3C
	case notifier.CategoryWarning:
		return 0xF1C40F
	default:
		return 0x3498DB
	}
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
