package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"tradedash/clients/backend"
	"tradedash/clients/discord"
	"tradedash/clients/notifier"
	"tradedash/clients/telegram"
	"tradedash/config"
	"tradedash/internal/app"
	"tradedash/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStatusCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the bot is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend.NewBackendClient(logger, cfg)
			status, err := api.GetBotStatus(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			v := view.BuildBotStatus(status)
			fmt.Fprintf(out, "Bot:           %s\n", v.Label)
			fmt.Fprintf(out, "Paper trading: %s\n", view.YesNo(status.PaperTradingEnabled))
			fmt.Fprintf(out, "Symbols:       %s\n", strings.Join(status.Symbols, ", "))
			fmt.Fprintf(out, "Timeframe:     %s\n", status.Timeframe)
			fmt.Fprintf(out, "Interval:      %d min\n", status.CheckIntervalMinutes)
			return nil
		},
	}
}

func newStartCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend.NewBackendClient(logger, cfg)
			res, err := api.StartBot(cmd.Context())
			return reportAction(cmd.OutOrStdout(), "started", res, err)
		},
	}
}

func newStopCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend.NewBackendClient(logger, cfg)
			res, err := api.StopBot(cmd.Context())
			return reportAction(cmd.OutOrStdout(), "stopped", res, err)
		},
	}
}

func reportAction(out io.Writer, verb string, res *backend.ActionResult, err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("✗ Error: %s", res.Message)
	}
	fmt.Fprintf(out, "✓ Bot %s successfully\n", verb)
	return nil
}

func newExportCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export closed trades as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend.NewBackendClient(logger, cfg)
			export, err := api.ExportTradesCSV(cmd.Context())
			if err != nil {
				return exportError(err)
			}

			path := filepath.Join(dir, app.ExportFilename(time.Now()))
			if err := os.WriteFile(path, export.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Export successful! %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", cfg.Dashboard.ExportDir, "Directory the CSV is written to")
	return cmd
}

func exportError(err error) error {
	var exportErr *backend.ExportError
	switch {
	case errors.As(err, &exportErr):
		return fmt.Errorf("✗ %s", exportErr.Message)
	case errors.Is(err, backend.ErrUnexpectedExportFormat):
		return errors.New("✗ Unexpected response format")
	case errors.Is(err, backend.ErrExportServer):
		return errors.New("✗ Server error during export")
	default:
		return err
	}
}

func newConfigCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the bot trading configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if local {
				data, err := cfg.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			api := backend.NewBackendClient(logger, cfg)
			tc, err := api.GetConfig(cmd.Context())
			if err != nil {
				return err
			}

			for i, section := range view.BuildConfig(tc).Sections {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, sectionStyle.Render(section.Title))
				for _, f := range section.Fields {
					fmt.Fprintf(out, "  %-16s %s\n", f.Label+":", f.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Show the dashboard's own configuration instead")
	return cmd
}

func newLogsCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the latest bot log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend.NewBackendClient(logger, cfg)
			logs, err := api.GetLogs(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			v := view.BuildLogs(logs)
			if v.Placeholder != "" {
				fmt.Fprintln(out, v.Placeholder)
				return nil
			}
			lines := v.Lines
			if tail > 0 && len(lines) > tail {
				lines = lines[len(lines)-tail:]
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "Only show the last n lines")
	return cmd
}

func newNotifyTestCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test system notification to the configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			var channels []notifier.Notifier
			if dc := discord.NewDiscordClient(logger, cfg); dc.Enabled() {
				channels = append(channels, dc)
			}
			if tc := telegram.NewTelegramClient(logger, cfg); tc.Enabled() {
				channels = append(channels, tc)
			}
			if len(channels) == 0 {
				return errors.New("no notification channel configured, set DISCORD_BOT_TOKEN or TELEGRAM_BOT_KEY")
			}

			n := notifier.NewMultiNotifier(channels...)
			defer n.Close()

			n.Notify(notifier.Alert{
				Title:     "🧪 Test notification",
				Message:   "If you can see this message, notifications are working correctly!",
				Icon:      "🧪",
				Category:  notifier.CategoryInfo,
				Timestamp: time.Now(),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Test notification sent to %d channel(s)\n", n.Count())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradedash %s (built %s)\n", app.BuildCommit, app.BuildTime)
		},
	}
}
