package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/tgjournal/internal/journal"
)

const statsUnavailableMsg = "❌ Journal stats are unavailable right now."

// NewStatsHandler returns a handler for the /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /stats command", "chat_id", chatID)

	text, err := h.statsText(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load journal stats", "error", err, "chat_id", chatID)
		text = statsUnavailableMsg
	}
	sendReply(ctx, b, h.deps, chatID, update.Message.ID, text)
}

func (h statsHandler) statsText(ctx context.Context) (string, error) {
	if h.deps.Store == nil {
		return "", fmt.Errorf("message ledger is not configured")
	}

	dayKey := h.deps.Assembler.Today()
	ledgerCtx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()

	stats, err := h.deps.Store.GetDayStats(ledgerCtx, dayKey)
	if err != nil {
		return "", err
	}

	day, err := journal.ParseDayKey(dayKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(h.deps.Config.Messages.Stats,
		day.Format("2006-01-02"), stats.Saved, stats.AttachmentsSaved, stats.AttachmentsFailed), nil
}
