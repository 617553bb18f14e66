package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler processes the /help command using injected dependencies.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil {
		log.WarnContext(ctx, "Help handler received update with nil message", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", update.Message.Chat.ID)
	sendReply(ctx, b, h.deps, update.Message.Chat.ID, 0, withBotName(h.deps, h.deps.Config.Messages.Help))
}

// withBotName substitutes @botname with the bot's username once known.
func withBotName(deps HandlerDeps, text string) string {
	if info := deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
		return strings.ReplaceAll(text, "@botname", "@"+info.Username)
	}
	return text
}
