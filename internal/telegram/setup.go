// Package telegram wires the journal to the Telegram Bot API: bot creation,
// handler registration and attachment downloads.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler describes a handler together with how it is matched and
// the middleware that wraps it.
type RegisteredHandler struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
	// Description is shown in the Telegram command menu. Handlers without
	// one are not listed.
	Description string
}

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

// ErrorsHandler returns a handler for transport errors (polling failures,
// API errors outside handlers). They are logged and never stop the bot.
func ErrorsHandler(logger *slog.Logger) bot.ErrorsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_transport")
	return func(err error) {
		log.Error("Telegram transport error", "error", err)
	}
}

// applyMiddleware wraps a handler function with a slice of middleware.
// Middleware are applied in reverse order so the first one in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers command and message handlers with the Telegram bot instance.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	log.Info("Registering Telegram handlers...", "count", len(registeredHandlers))

	for _, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", regHandler.Pattern)
			continue
		}

		finalHandler := applyMiddleware(regHandler.Handler, regHandler.Middleware)
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, finalHandler)
		log.Debug("Registered handler", "pattern", regHandler.Pattern, "match_type", regHandler.MatchType, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers successfully", "count", len(registeredHandlers))
	return nil
}

// BotCommands returns the command menu entries for handlers that have a
// description, sorted by command.
func BotCommands(registeredHandlers map[string]RegisteredHandler) []models.BotCommand {
	var commands []models.BotCommand
	for _, h := range registeredHandlers {
		if h.Description == "" || h.Pattern == "" {
			continue
		}
		commands = append(commands, models.BotCommand{Command: h.Pattern, Description: h.Description})
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Command < commands[j].Command })
	return commands
}

// SetCommands publishes the command menu. Failure is logged, not fatal.
func SetCommands(ctx context.Context, b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]RegisteredHandler) {
	commands := BotCommands(registeredHandlers)
	if len(commands) == 0 {
		return
	}
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		logger.Warn("Failed to set bot commands", "error", err)
		return
	}
	logger.Info("Bot commands set", "count", len(commands))
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}
