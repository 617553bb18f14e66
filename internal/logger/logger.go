// Package logger builds the slog logger and the update-logging middleware.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// level backs the logger built by NewLogger so it can change at runtime.
var level slog.LevelVar

// NewLogger creates a new slog Logger on stdout with the specified level and
// format and makes it the default. If jsonOutput is true, logs are
// formatted as JSON, otherwise as text. Its level follows SetLevel.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	level.Set(ParseLevel(levelStr))
	logger := newWithLeveler(os.Stdout, &level, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// SetLevel changes the level of the logger returned by NewLogger.
func SetLevel(levelStr string) {
	level.Set(ParseLevel(levelStr))
}

// New creates a logger writing to w without touching the default logger.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	return newWithLeveler(w, ParseLevel(levelStr), jsonOutput)
}

func newWithLeveler(w io.Writer, leveler slog.Leveler, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: leveler,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used where a nil logger
// is passed in.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs every incoming update with its ids, content kinds and duration.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)

			updateType := "other"
			if msg := update.Message; msg != nil {
				updateType = "message"
				var userID int64
				if msg.From != nil {
					userID = msg.From.ID
				}
				text := msg.Text
				if text == "" {
					text = msg.Caption
				}
				logEntry = logEntry.With(
					"message_id", msg.ID,
					"chat_id", msg.Chat.ID,
					"user_id", userID,
					"text_preview", truncateString(text, 50),
					"has_photo", len(msg.Photo) > 0,
					"has_document", msg.Document != nil,
				)
			} else if update.EditedMessage != nil {
				// Edits are not synced to the journal.
				updateType = "edited_message"
				logEntry = logEntry.With("message_id", update.EditedMessage.ID, "chat_id", update.EditedMessage.Chat.ID)
			}
			logEntry = logEntry.With("update_type", updateType)

			logEntry.InfoContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
