package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MovieDeck/internal/core"
	"github.com/vadimtrunov/MovieDeck/internal/filter"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

const (
	unauthorizedMsg = "Sorry, you are not authorized to use this bot."
	errorMsg        = "An error occurred while processing your request. Please try again."
	resetMsg        = "Session reset. Loaded lists were discarded."
	welcomeMsg      = "Welcome to MovieDeck! Browse what's trending, popular and coming soon."
	helpMsg         = `Commands:
/trending [day|week] - trending movies
/nowplaying - in theaters now
/popular - popular movies
/toprated - top rated movies
/upcoming - coming soon
/movie <id> - details, cast, reviews and trailer
/reset - discard loaded lists
Any other text searches titles in the lists you loaded.`

	callbackPrefix = "movie:" // prefix for movie selection callback data

	maxButtonLabel = 30 // max characters in inline keyboard button label
)

var listCommands = map[string]struct {
	category viewstate.Category
	title    string
}{
	"trending":   {viewstate.CategoryTrending, "Trending"},
	"nowplaying": {viewstate.CategoryNowPlaying, "Now playing"},
	"popular":    {viewstate.CategoryPopular, "Popular"},
	"toprated":   {viewstate.CategoryTopRated, "Top rated"},
	"upcoming":   {viewstate.CategoryUpcoming, "Upcoming"},
}

// handleMessage processes an incoming text message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	b.logger.Debug("received message",
		slog.Int64("user_id", userID),
	)

	if !b.sessions.isAllowed(userID) {
		b.sendText(chatID, unauthorizedMsg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if !msg.IsCommand() {
		b.search(chatID, userID, text)
		return
	}

	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	switch cmd {
	case "start":
		b.sendText(chatID, welcomeMsg+"\n\n"+helpMsg)
		return
	case "help":
		b.sendText(chatID, helpMsg)
		return
	case "reset":
		b.sessions.reset(userID)
		b.sendText(chatID, resetMsg)
		return
	case "movie":
		id, err := strconv.Atoi(args)
		if err != nil || id <= 0 {
			b.sendText(chatID, "Usage: /movie <TMDb id>")
			return
		}
		b.showMovie(ctx, chatID, userID, id)
		return
	}

	lc, ok := listCommands[cmd]
	if !ok {
		b.sendText(chatID, "Unknown command. Send /help for the list of commands.")
		return
	}
	window := ""
	if lc.category == viewstate.CategoryTrending {
		switch args {
		case "", "day", "week":
			window = args
		default:
			b.sendText(chatID, "Usage: /trending [day|week]")
			return
		}
	}
	b.showList(ctx, chatID, userID, lc.category, lc.title, window)
}

// handleCallback processes inline keyboard callback queries.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	b.logger.Debug("received callback",
		slog.Int64("user_id", userID),
		slog.String("data", cq.Data),
	)

	// Acknowledge the callback immediately.
	b.api.Request(tgbotapi.NewCallback(cq.ID, "")) //nolint:errcheck // best-effort ack

	if !b.sessions.isAllowed(userID) {
		return
	}

	idText, ok := strings.CutPrefix(cq.Data, callbackPrefix)
	if !ok {
		return
	}
	id, err := strconv.Atoi(idText)
	if err != nil || id <= 0 {
		return
	}
	b.showMovie(ctx, chatID, userID, id)
}

func (b *Bot) session(chatID, userID int64) *viewstate.Coordinator {
	c := b.sessions.getOrCreate(userID, b.factory)
	if c == nil {
		b.logger.Error("failed to create session", slog.Int64("user_id", userID))
		b.sendText(chatID, errorMsg)
	}
	return c
}

func (b *Bot) typing(chatID int64) {
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)) //nolint:errcheck // best-effort typing indicator
}

func (b *Bot) showList(ctx context.Context, chatID, userID int64, cat viewstate.Category, title, window string) {
	c := b.session(chatID, userID)
	if c == nil {
		return
	}
	b.typing(chatID)

	if err := c.Load(ctx, cat, window); err != nil {
		b.logger.Warn("list load interrupted",
			slog.Int64("user_id", userID),
			slog.String("category", cat.String()),
			slog.String("error", err.Error()),
		)
		b.sendText(chatID, errorMsg)
		return
	}
	if f := c.CategoryError(cat); f != nil {
		b.sendText(chatID, fmt.Sprintf("Could not load %s: %s", strings.ToLower(title), f.Message))
		return
	}

	movies, _ := c.Movies(cat)
	b.sendReply(chatID, formatMovieList(title, movies), movieKeyboard(movies))
}

// search fuzzy-matches text against the titles of every list loaded in the session.
func (b *Bot) search(chatID, userID int64, text string) {
	c := b.session(chatID, userID)
	if c == nil {
		return
	}

	seen := make(map[int]bool)
	var pool []tmdb.Movie
	for _, cat := range viewstate.ListCategories() {
		movies, _ := c.Movies(cat)
		for _, m := range movies {
			if !seen[m.ID] {
				seen[m.ID] = true
				pool = append(pool, m)
			}
		}
	}
	if len(pool) == 0 {
		b.sendText(chatID, "Load a list first, e.g. /trending. Send /help for all commands.")
		return
	}

	matches := filter.Search(text, pool)
	b.sendReply(chatID, formatMovieList("Matches for "+text, matches), movieKeyboard(matches))
}

func (b *Bot) showMovie(ctx context.Context, chatID, userID int64, id int) {
	c := b.session(chatID, userID)
	if c == nil {
		return
	}
	b.typing(chatID)

	if err := c.LoadMovie(ctx, id); err != nil {
		b.logger.Warn("movie load interrupted",
			slog.Int64("user_id", userID),
			slog.Int("movie_id", id),
			slog.String("error", err.Error()),
		)
		b.sendText(chatID, errorMsg)
		return
	}
	card, err := c.Movie(id)
	var f *core.Failure
	if errors.As(err, &f) {
		b.sendText(chatID, fmt.Sprintf("Could not load movie %d: %s", id, f.Message))
		return
	}
	if err != nil {
		b.sendText(chatID, errorMsg)
		return
	}

	b.SendPoster(chatID, card.Details.PosterPath, card.Details.Title)
	b.sendReply(chatID, formatMovie(card), nil)
}

// sendReply sends r as MarkdownV2, falling back to plain text.
func (b *Bot) sendReply(chatID int64, r *reply, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, r.md.String())
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	_, err := b.api.Send(msg)
	if err == nil {
		return
	}
	b.logger.Warn("failed to send markdown, retrying plain",
		slog.String("error", err.Error()),
	)

	plain := tgbotapi.NewMessage(chatID, r.plain.String())
	if kb != nil {
		plain.ReplyMarkup = kb
	}
	if _, err := b.api.Send(plain); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// sendText sends a plain text message (no parse mode).
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

// movieKeyboard builds one button per listed movie. Returns nil for fewer
// than two movies.
func movieKeyboard(movies []tmdb.Movie) *tgbotapi.InlineKeyboardMarkup {
	if len(movies) < 2 {
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range movies {
		if i == maxListItems {
			break
		}
		label := fmt.Sprintf("%d. %s", i+1, movieLabel(m))
		if r := []rune(label); len(r) > maxButtonLabel {
			label = string(r[:maxButtonLabel]) + "…"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackPrefix+strconv.Itoa(m.ID)),
		))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// SendPoster sends a movie poster photo with a caption.
func (b *Bot) SendPoster(chatID int64, posterPath *string, caption string) {
	url := tmdb.PosterURL(posterPath, "w500")
	if url == "" {
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Debug("failed to send poster",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}
