package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
)

// Settings configures an Assembler.
type Settings struct {
	// SaveDirectory is the journal root.
	SaveDirectory string
	// Location is the time zone that decides which day a message is filed
	// under and the time shown in its entry. Nil means time.Local.
	Location *time.Location
	// DownloadTimeout bounds each attachment download. Zero means no bound
	// beyond the caller's context.
	DownloadTimeout time.Duration
}

// Summary reports what happened to one message.
type Summary struct {
	MessageID   string
	DayKey      string
	Path        string
	Attachments []AttachmentResult
	// Err is set when the journal entry could not be written.
	Err error
}

// Saved reports whether the journal entry was written.
func (s Summary) Saved() bool {
	return s.Err == nil
}

// SavedAttachments counts stored attachments.
func (s Summary) SavedAttachments() int {
	n := 0
	for _, r := range s.Attachments {
		if r.OK() {
			n++
		}
	}
	return n
}

// FailedAttachments counts attachments that could not be stored.
func (s Summary) FailedAttachments() int {
	return len(s.Attachments) - s.SavedAttachments()
}

// Warnings returns one note per failed attachment, in message order.
func (s Summary) Warnings() []string {
	var warnings []string
	for _, r := range s.Attachments {
		if !r.OK() {
			warnings = append(warnings, r.Warning())
		}
	}
	return warnings
}

// Acknowledgment returns the final reply for the sender.
func (s Summary) Acknowledgment() string {
	if s.Err != nil {
		return fmt.Sprintf("❌ Failed to save message: %v", s.Err)
	}
	if n := s.SavedAttachments(); n > 0 {
		return fmt.Sprintf("Message and %d attachment(s) saved! ✅", n)
	}
	return "Message saved! ✅"
}

// Replies returns every reply for the sender: attachment warnings first,
// then the acknowledgment.
func (s Summary) Replies() []string {
	return append(s.Warnings(), s.Acknowledgment())
}

// Assembler turns incoming messages into journal entries.
type Assembler struct {
	settings     Settings
	clock        clockwork.Clock
	writer       *Writer
	materializer *Materializer
	logger       *slog.Logger
}

// NewAssembler creates an Assembler. A nil clock means the real clock.
func NewAssembler(settings Settings, clock clockwork.Clock, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &Assembler{
		settings:     settings,
		clock:        clock,
		writer:       NewWriter(settings.SaveDirectory, logger),
		materializer: NewMaterializer(settings.SaveDirectory, settings.DownloadTimeout, logger),
		logger:       logger.With("component", "journal_assembler"),
	}
}

// Now returns the current processing time in the journal's time zone.
func (a *Assembler) Now() time.Time {
	return a.clock.Now().In(a.settings.Location)
}

// Today returns the day key messages are currently filed under.
func (a *Assembler) Today() string {
	return DayKey(a.Now())
}

// JournalPath returns the journal file path for dayKey.
func (a *Assembler) JournalPath(dayKey string) string {
	return a.writer.Path(dayKey)
}

// DigestPath returns where the digest for dayKey is stored. Digests live
// beside the journal files, never inside them.
func (a *Assembler) DigestPath(dayKey string) string {
	return filepath.Join(a.settings.SaveDirectory, "digests", dayKey+".md")
}

// Process stores msg: attachments are downloaded through d one at a time,
// each failure isolated, then the entry is appended to today's journal.
// The day and the entry time come from the processing clock, not from the
// transport timestamp.
func (a *Assembler) Process(ctx context.Context, msg IncomingMessage, d Downloader) Summary {
	now := a.Now()
	dayKey := DayKey(now)
	summary := Summary{
		MessageID: msg.ID,
		DayKey:    dayKey,
		Path:      a.writer.Path(dayKey),
	}
	log := a.logger.With("message_id", msg.ID, "day", dayKey)
	log.InfoContext(ctx, "Processing message", "attachments", len(msg.Attachments))

	attachmentDir := AttachmentDir(a.settings.SaveDirectory, dayKey)
	if err := os.MkdirAll(attachmentDir, 0o755); err != nil {
		log.WarnContext(ctx, "Failed to create attachment directory", "path", attachmentDir, "error", err)
	}

	var links []string
	for _, att := range msg.Attachments {
		result := a.materializer.Materialize(ctx, d, dayKey, now, att)
		summary.Attachments = append(summary.Attachments, result)
		if result.OK() {
			links = append(links, result.Link)
		}
	}

	entry := Entry{
		Time:   now,
		Sender: msg.Sender,
		Text:   msg.DisplayText(),
		Links:  links,
	}
	if err := a.writer.Append(dayKey, entry.String()); err != nil {
		summary.Err = err
		log.ErrorContext(ctx, "Failed to write journal entry", "path", summary.Path, "error", err)
		return summary
	}

	log.InfoContext(ctx, "Message saved",
		"path", summary.Path,
		"attachments_saved", summary.SavedAttachments(),
		"attachments_failed", summary.FailedAttachments())
	return summary
}
