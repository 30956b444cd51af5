package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieDeck/internal/core"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

// SessionFactory creates a new Coordinator for each user session.
type SessionFactory func() *viewstate.Coordinator

// sender is the part of the Bot API used to reply.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram frontend for MovieDeck.
// It implements the core.Frontend interface.
type Bot struct {
	bot      *tgbotapi.BotAPI
	api      sender
	sessions *sessionManager
	factory  SessionFactory
	logger   *slog.Logger
	idleTTL  time.Duration
}

// compile-time check.
var _ core.Frontend = (*Bot)(nil)

// New creates a new Telegram Bot.
func New(token string, allowedUserIDs []int64, factory SessionFactory, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := newBot(api, allowedUserIDs, factory, logger)
	b.bot = api
	return b, nil
}

func newBot(api sender, allowedUserIDs []int64, factory SessionFactory, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		sessions: newSessionManager(allowedUserIDs),
		factory:  factory,
		logger:   logger,
		idleTTL:  DefaultSessionIdleTTL,
	}
}

// SetSessionIdleTTL changes how long an unused session is kept. Zero or
// negative keeps sessions until /reset or shutdown.
func (b *Bot) SetSessionIdleTTL(ttl time.Duration) { b.idleTTL = ttl }

// Name returns the frontend name.
func (b *Bot) Name() string { return "telegram" }

// Start starts the long-polling loop. It blocks until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.bot == nil {
		return fmt.Errorf("telegram bot not connected")
	}
	b.logger.Info("telegram bot started",
		slog.String("username", b.bot.Self.UserName),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.bot.GetUpdatesChan(u)

	var sweep <-chan time.Time
	if b.idleTTL > 0 {
		ticker := time.NewTicker(b.idleTTL / 2)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			b.sessions.closeAll()
			b.logger.Info("telegram bot stopped")
			return nil

		case <-sweep:
			if n := b.sessions.evictIdle(b.idleTTL); n > 0 {
				b.logger.Debug("evicted idle sessions", slog.Int("count", n))
			}

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop releases all user sessions. Start returns when its ctx is canceled.
func (b *Bot) Stop(_ context.Context) error {
	b.sessions.closeAll()
	return nil
}

// SendMessage sends a text message to a Telegram user.
func (b *Bot) SendMessage(_ context.Context, userID, message string) error {
	var chatID int64
	if _, err := fmt.Sscanf(userID, "%d", &chatID); err != nil {
		return fmt.Errorf("invalid user ID %q: %w", userID, err)
	}

	msg := tgbotapi.NewMessage(chatID, message)
	_, err := b.api.Send(msg)
	return err
}

// handleUpdate dispatches an incoming Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("telegram update panicked", slog.Any("panic", p))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}
