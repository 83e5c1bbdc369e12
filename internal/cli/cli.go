// Package cli provides the command-line interface of the dashboard.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	clts "tradedash/clients"
	"tradedash/config"
	"tradedash/internal/app"
	"tradedash/internal/display"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Run executes the root command and returns the process exit code.
func Run(ctx context.Context, logger *zap.Logger, cfg *config.Config) int {
	rootCmd := NewRootCmd(logger, cfg)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd creates the root command. Flags write straight into cfg.
func NewRootCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}

	rootCmd := &cobra.Command{
		Use:   "tradedash",
		Short: "tradedash - trading bot dashboard",
		Long: `tradedash watches a trading bot backend: stats, positions, logs and
configuration refresh periodically, and position events pushed by the bot
raise notifications.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
			cfg.Dashboard.Renderer = strings.ToLower(cfg.Dashboard.Renderer)
			return cfg.Err()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: watch
			return runWatch(cmd.Context(), logger, cfg)
		},
	}

	rootCmd.AddCommand(newWatchCmd(logger, cfg))
	rootCmd.AddCommand(newStatusCmd(logger, cfg))
	rootCmd.AddCommand(newStartCmd(logger, cfg))
	rootCmd.AddCommand(newStopCmd(logger, cfg))
	rootCmd.AddCommand(newExportCmd(logger, cfg))
	rootCmd.AddCommand(newConfigCmd(logger, cfg))
	rootCmd.AddCommand(newLogsCmd(logger, cfg))
	rootCmd.AddCommand(newReportCmd(logger, cfg))
	rootCmd.AddCommand(newNotifyTestCmd(logger, cfg))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.Backend.BaseURL, "backend-url", cfg.Backend.BaseURL, "Trading bot backend base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.Dashboard.Renderer, "renderer", cfg.Dashboard.Renderer, `Dashboard renderer, "terminal" or "web"`)

	return rootCmd
}

func newWatchCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), logger, cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Web.Port, "port", cfg.Web.Port, "Listen port of the web renderer")
	cmd.Flags().StringVar(&cfg.Notifications.Backend, "notifications", cfg.Notifications.Backend, `Notification layer, "full" or "null"`)
	return cmd
}

// runWatch wires the clients, the renderer and the runner, and blocks until
// ctx is cancelled or the user quits.
func runWatch(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	if err := cfg.Err(); err != nil {
		return err
	}

	logger.Info("instantiating clients",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("renderer", cfg.Dashboard.Renderer),
		zap.String("notifications", cfg.Notifications.Backend))
	clients := clts.NewClients(logger, cfg)
	defer clients.Close()

	var renderer app.InteractiveRenderer
	var prompter app.Prompter
	switch cfg.Dashboard.Renderer {
	case config.RendererWeb:
		renderer = display.NewWeb(logger, cfg)
	default:
		term := display.NewTerminal(logger, cfg.Dashboard)
		if term.Interactive() {
			prompter = SurveyPrompter{}
		}
		renderer = term
	}

	return app.NewRunner(clients, cfg, renderer, prompter).Run(ctx)
}
