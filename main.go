package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"tradedash/config"
	"tradedash/internal/cli"

	"go.uber.org/zap"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		panic(err)
	}

	// Load config from environment variables
	cfg := config.Load()
	logger.Info("config loaded",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("backend", cfg.Backend.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := cli.Run(ctx, logger, cfg)

	stop()
	logger.Sync()
	os.Exit(code)
}

// newLogger writes JSON logs to a file when LOG_FILE is set, so they do not
// tear the terminal dashboard. Otherwise logs go to stderr.
func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if path := os.Getenv("LOG_FILE"); path != "" {
		zcfg.OutputPaths = []string{path}
		zcfg.ErrorOutputPaths = []string{path}
	}
	return zcfg.Build()
}
