package database

import "time"

// Ledger statuses.
const (
	StatusSaved  = "saved"
	StatusFailed = "failed"
)

// MessageRecord is one processed Telegram message. The journal file holds
// the content; the ledger only remembers that the message was handled.
type MessageRecord struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID            int64  `db:"chat_id"`
	MessageID         int64  `db:"message_id"`
	UserID            int64  `db:"user_id"`
	Sender            string `db:"sender"`
	DayKey            string `db:"day_key"`
	Status            string `db:"status"`
	AttachmentsSaved  int    `db:"attachments_saved"`
	AttachmentsFailed int    `db:"attachments_failed"`
	Error             string `db:"error"`
}

// DayStats aggregates the ledger for one day.
type DayStats struct {
	DayKey            string `db:"day_key"`
	Messages          int    `db:"messages"`
	Saved             int    `db:"saved"`
	Failed            int    `db:"failed"`
	AttachmentsSaved  int    `db:"attachments_saved"`
	AttachmentsFailed int    `db:"attachments_failed"`
}
