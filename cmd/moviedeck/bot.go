package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/frontend/telegram"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the MovieDeck Telegram bot. Each user gets their own browsing session.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot()
		},
	}
}

// runBot initializes services and starts the Telegram bot.
func runBot() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or MOVIEDECK_TELEGRAM_BOT_TOKEN env var",
		)
	}

	logger := config.SetupLogger(cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bot, err := initTelegramBot(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("telegram bot starting")
	return bot.Start(ctx)
}

// initTelegramBot creates a Telegram bot whose sessions share one repository.
func initTelegramBot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*telegram.Bot, error) {
	repo := initRepository(cfg, logger)
	factory := func() *viewstate.Coordinator {
		return newCoordinator(ctx, repo, cfg, logger)
	}

	bot, err := telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.AllowedUserIDs,
		factory,
		logger,
	)
	if err != nil {
		return nil, err
	}
	if ttl := cfg.Telegram.SessionIdleTTL; ttl > 0 {
		bot.SetSessionIdleTTL(ttl)
	}
	return bot, nil
}
