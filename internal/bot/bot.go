// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/budget-health/internal/budget"
	"gitlab.com/yelinaung/budget-health/internal/config"
	"gitlab.com/yelinaung/budget-health/internal/ledger"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"gitlab.com/yelinaung/budget-health/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// pollTimeout is the long-polling timeout passed to getUpdates.
const pollTimeout = time.Minute

// UserStore registers Telegram users.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
}

// CategoryLookup resolves categories by name and lists them.
type CategoryLookup interface {
	FindCategoryByName(ctx context.Context, userID int64, name string) (*models.BudgetCategory, error)
	ListCategories(ctx context.Context, userID int64) ([]models.BudgetCategory, error)
}

// ExpenseLister lists a category's expenses in a date range.
type ExpenseLister interface {
	ListByCategoryAndDateRange(
		ctx context.Context,
		userID int64,
		categoryID int,
		dateRange models.DateRange,
	) ([]models.Expense, error)
}

// Deps are the services the handlers run on.
type Deps struct {
	Users      UserStore
	Categories CategoryLookup
	Expenses   ExpenseLister
	Budget     *budget.Service
	Ledger     *ledger.ExpenseService
	Catalog    *ledger.CategoryService
}

type commandHandler func(ctx context.Context, tg TelegramAPI, update *tgmodels.Update)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot      *bot.Bot
	cfg      *config.Config
	deps     Deps
	commands map[string]commandHandler
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := newBot(cfg, deps)

	client := &http.Client{
		Timeout:   pollTimeout + 10*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithHTTPClient(pollTimeout, client),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, deps Deps) *Bot {
	b := &Bot{cfg: cfg, deps: deps}
	b.commands = map[string]commandHandler{
		"/start":       b.handleStartCore,
		"/help":        b.handleHelpCore,
		"/categories":  b.handleCategoriesCore,
		"/addcategory": b.handleAddCategoryCore,
		"/add":         b.handleAddCore,
		"/delete":      b.handleDeleteCore,
		"/preview":     b.handlePreviewCore,
		"/health":      b.handleHealthCore,
		"/progress":    b.handleProgressCore,
		"/chart":       b.handleChartCore,
		"/export":      b.handleExportCore,
	}
	return b
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers routes every command through handleCommand.
// Prefix matching alone would send /addcategory to /add.
func (b *Bot) registerHandlers() {
	for command := range b.commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, command, bot.MatchTypePrefix, b.handleCommand)
	}
}

func (b *Bot) handleCommand(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.dispatch(ctx, tgBot, update)
}

// dispatch runs the handler registered for the message's exact command word.
func (b *Bot) dispatch(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if h, ok := b.commands[commandWord(update.Message.Text)]; ok {
		h(ctx, tg, update)
		return
	}
	b.replyUnknown(ctx, tg, update.Message.Chat.ID)
}

// commandWord returns the leading "/command" of text without any @botname suffix.
func commandWord(text string) string {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if b.authorize(ctx, tgBot, update) {
			next(ctx, tgBot, update)
		}
	}
}

// authorize reports whether the update may be handled and registers its sender.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if !b.cfg.IsUserWhitelisted(userID, username) {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if err := b.ensureUserRegistered(ctx, update); err != nil {
		logger.Log.Error().
			Str("user_hash", logger.HashUserID(userID)).
			Err(err).
			Msg("Failed to register user")
	}
	return true
}

// logUserAction logs the user's input with identifiers hashed.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("command", commandWord(update.Message.Text)).
			Msg("User input")
	case update.EditedMessage != nil:
		logger.Log.Debug().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Edited message ignored")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

// ensureUserRegistered creates or updates the user record. Categories reference it.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	from := update.Message.From
	user := &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.deps.Users.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// defaultHandler handles messages no command matched.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(extractUserID(update))).
		Msg("Default handler triggered")

	b.replyUnknown(ctx, tgBot, update.Message.Chat.ID)
}

func (b *Bot) replyUnknown(ctx context.Context, tg TelegramAPI, chatID int64) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      "I didn't understand that. Use /help to see available commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrCategoryNotFound) || errors.Is(err, models.ErrExpenseNotFound)
}

func isValidation(err error) bool {
	return errors.Is(err, budget.ErrValidation)
}

// userFacingError turns a service error into a reply line.
func userFacingError(err error, fallback string) string {
	switch {
	case errors.Is(err, models.ErrCategoryNotFound):
		return "❌ Category not found. Use /categories to see yours."
	case errors.Is(err, models.ErrExpenseNotFound):
		return "❌ Expense not found."
	case errors.Is(err, budget.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), budget.ErrValidation.Error()+": ")
		return "❌ " + escapeHTML(upperFirst(msg)) + "."
	default:
		return fallback
	}
}
