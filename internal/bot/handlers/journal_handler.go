package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/tgjournal/internal/database"
	"github.com/edgard/tgjournal/internal/journal"
	"github.com/edgard/tgjournal/internal/telegram"
)

const (
	ledgerTimeout      = 5 * time.Second
	sendMessageTimeout = 10 * time.Second
)

type journalHandler struct {
	deps HandlerDeps
}

// NewJournalHandler creates the default handler: every message that no
// command claims is written to the journal.
func NewJournalHandler(deps HandlerDeps) bot.HandlerFunc {
	return journalHandler{deps}.Handle
}

func (h journalHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "journal")

	msg := update.Message
	if msg == nil {
		log.DebugContext(ctx, "Ignoring update without a message", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	if h.alreadyRecorded(ctx, msg) {
		log.InfoContext(ctx, "Skipping message that is already in the journal", "chat_id", chatID, "message_id", msg.ID)
		return
	}

	incoming := IncomingFromMessage(msg)
	tg := h.deps.Config.Telegram
	downloader := telegram.NewDownloader(b, tg.Token, tg.APIURL, h.deps.Config.Journal.MaxDownloadBytes)

	summary := h.deps.Assembler.Process(ctx, incoming, downloader)
	if summary.Saved() {
		log.InfoContext(ctx, "Message journaled",
			"chat_id", chatID, "message_id", msg.ID, "day_key", summary.DayKey,
			"attachments_saved", summary.SavedAttachments(), "attachments_failed", summary.FailedAttachments())
	} else {
		log.ErrorContext(ctx, "Failed to journal message", "chat_id", chatID, "message_id", msg.ID, "error", summary.Err)
	}

	h.record(ctx, msg, summary)

	for _, reply := range summary.Replies() {
		sendReply(ctx, b, h.deps, chatID, msg.ID, reply)
	}
}

// alreadyRecorded guards against Telegram redelivering updates after an
// unclean shutdown. Ledger errors let the message through.
func (h journalHandler) alreadyRecorded(ctx context.Context, msg *models.Message) bool {
	if h.deps.Store == nil {
		return false
	}
	ledgerCtx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()

	seen, err := h.deps.Store.HasMessage(ledgerCtx, msg.Chat.ID, int64(msg.ID))
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "Ledger lookup failed, journaling anyway", "chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
		return false
	}
	return seen
}

func (h journalHandler) record(ctx context.Context, msg *models.Message, summary journal.Summary) {
	if h.deps.Store == nil {
		return
	}

	rec := &database.MessageRecord{
		ChatID:            msg.Chat.ID,
		MessageID:         int64(msg.ID),
		Sender:            SenderName(msg),
		DayKey:            summary.DayKey,
		Status:            database.StatusSaved,
		AttachmentsSaved:  summary.SavedAttachments(),
		AttachmentsFailed: summary.FailedAttachments(),
	}
	if msg.From != nil {
		rec.UserID = msg.From.ID
	}
	if summary.Err != nil {
		rec.Status = database.StatusFailed
		rec.Error = summary.Err.Error()
	}

	ledgerCtx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()
	if err := h.deps.Store.RecordMessage(ledgerCtx, rec); err != nil {
		h.deps.Logger.WarnContext(ctx, "Failed to record message in ledger", "chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
	}
}

// sendReply answers the message it refers to. Failures are logged only.
func sendReply(ctx context.Context, b *bot.Bot, deps HandlerDeps, chatID int64, replyTo int, text string) {
	log := deps.Logger.With("handler", "reply")
	if ctx.Err() != nil {
		log.ErrorContext(ctx, "Context cancelled before sending reply", "error", ctx.Err(), "chat_id", chatID)
		return
	}

	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if replyTo > 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	if _, err := b.SendMessage(sendCtx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send reply message", "error", err, "chat_id", chatID)
		return
	}
	log.DebugContext(ctx, "Sent reply", "chat_id", chatID, "reply_to", replyTo)
}
