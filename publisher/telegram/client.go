package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"

	"github.com/scipunch/issuesync/config"
)

// ClientRunner is a function that runs with an authenticated client
type ClientRunner func(ctx context.Context, client *telegram.Client) error

// ClientOptions configures the MTProto client used by the bot
type ClientOptions struct {
	SessionPath string // Reuses the bot authorization between runs when set
	Logger      *zap.Logger
}

// NewLogger builds the zap logger gotd reports its internals to
func NewLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		slog.Warn("failed to build gotd logger, using no-op", "error", err)
		return zap.NewNop()
	}
	return logger
}

// RunAsBot creates a Telegram client, logs it in with the bot token and runs
// the provided function
func RunAsBot(ctx context.Context, creds config.TelegramCredentials, opts ClientOptions, runner ClientRunner) error {
	var storage telegram.SessionStorage
	if opts.SessionPath != "" {
		storage = &session.FileStorage{Path: opts.SessionPath}
	}

	client := telegram.NewClient(creds.AppID, creds.AppHash, telegram.Options{
		SessionStorage: storage,
		Logger:         opts.Logger,
		NoUpdates:      true,
	})

	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get auth status: %w", err)
		}
		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, creds.BotToken); err != nil {
				return fmt.Errorf("bot authentication failed: %w", err)
			}
			slog.Debug("telegram bot authenticated")
		}

		return runner(ctx, client)
	})
}
