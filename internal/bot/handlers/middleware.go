package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AllowedUsers creates a middleware that only lets configured users through.
// Others get the "unauthorized" reply and the update is dropped. An empty
// allow list admits everyone.
func AllowedUsers(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || len(deps.Config.Telegram.AllowedUserIDs) == 0 {
				next(ctx, bot, update)
				return
			}

			var userID int64
			if msg.From != nil {
				userID = msg.From.ID
			}
			if deps.Config.IsUserAllowed(userID) {
				next(ctx, bot, update)
				return
			}

			chatID := msg.Chat.ID
			log := deps.Logger.With("middleware", "AllowedUsers")
			log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)

			_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   deps.Config.Messages.Unauthorized,
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
			}
		}
	}
}
