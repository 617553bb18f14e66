package handlers

import (
	"strconv"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/tgjournal/internal/journal"
)

const unknownSender = "unknown"

// IncomingFromMessage maps a Telegram message onto the journal's message
// type. The photo comes first, then the document.
func IncomingFromMessage(msg *models.Message) journal.IncomingMessage {
	in := journal.IncomingMessage{
		ID:        strconv.Itoa(msg.ID),
		Timestamp: time.Unix(int64(msg.Date), 0),
		Sender:    SenderName(msg),
		Text:      msg.Text,
		Caption:   msg.Caption,
	}

	if photo, ok := largestPhoto(msg.Photo); ok {
		in.Attachments = append(in.Attachments, journal.Attachment{
			Kind:   journal.KindPhoto,
			FileID: photo.FileID,
		})
	}
	if doc := msg.Document; doc != nil {
		in.Attachments = append(in.Attachments, journal.Attachment{
			Kind:     journal.KindDocument,
			FileID:   doc.FileID,
			FileName: doc.FileName,
		})
	}
	return in
}

// SenderName returns the username, falling back to the first name, then
// the sender chat title for channel posts.
func SenderName(msg *models.Message) string {
	if u := msg.From; u != nil {
		if u.Username != "" {
			return u.Username
		}
		if u.FirstName != "" {
			return u.FirstName
		}
	}
	if c := msg.SenderChat; c != nil && c.Title != "" {
		return c.Title
	}
	return unknownSender
}

// largestPhoto picks the size with the most pixels. Telegram lists sizes
// smallest first, so ties go to the later entry.
func largestPhoto(sizes []models.PhotoSize) (models.PhotoSize, bool) {
	var best models.PhotoSize
	bestQuality := -1
	for _, p := range sizes {
		if quality := p.Width * p.Height; quality >= bestQuality {
			bestQuality = quality
			best = p
		}
	}
	return best, bestQuality >= 0
}
