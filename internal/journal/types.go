// Package journal materializes chat messages into date-partitioned markdown
// journal files. Attachments are downloaded into a per-day directory next to
// the journal and referenced from the entry with relative links.
package journal

import (
	"context"
	"io"
	"time"
)

// Layouts used for day keys, header dates and entry timestamps.
const (
	DayKeyLayout     = "20060102"
	HeaderDateLayout = "2006-01-02"
	EntryTimeLayout  = "15:04:05"
	nameTimeLayout   = "150405"
)

// AttachmentsDirName is the directory under the save directory that holds
// per-day attachment directories.
const AttachmentsDirName = "attachments"

// AttachmentKind distinguishes the media types the journal knows how to store.
type AttachmentKind int

const (
	KindPhoto AttachmentKind = iota
	KindDocument
)

func (k AttachmentKind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindDocument:
		return "document"
	default:
		return "attachment"
	}
}

// Attachment describes one media item of an incoming message. FileID is the
// transport reference passed to the Downloader. FileName is only meaningful
// for documents and may be empty.
type Attachment struct {
	Kind     AttachmentKind
	FileID   string
	FileName string
}

// IncomingMessage is the transport-neutral view of a chat message.
type IncomingMessage struct {
	ID          string
	Timestamp   time.Time
	Sender      string
	Text        string
	Caption     string
	Attachments []Attachment
}

// DisplayText returns the text that goes into the journal entry: the message
// text, else its caption, else the empty string.
func (m IncomingMessage) DisplayText() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// Downloader fetches attachment bytes by transport reference.
type Downloader interface {
	Download(ctx context.Context, fileID string, dst io.Writer) error
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(ctx context.Context, fileID string, dst io.Writer) error

// Download calls f(ctx, fileID, dst).
func (f DownloaderFunc) Download(ctx context.Context, fileID string, dst io.Writer) error {
	return f(ctx, fileID, dst)
}
