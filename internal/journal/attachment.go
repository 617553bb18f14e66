package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxReserveAttempts bounds how often reserve re-allocates when a name it
// allocated is taken by someone outside this process before creation.
const maxReserveAttempts = 16

// AttachmentResult is the outcome of materializing one attachment: either a
// markdown link to the stored file or the error that prevented storing it.
type AttachmentResult struct {
	Attachment Attachment
	FileName   string
	Link       string
	Err        error
}

// OK reports whether the attachment was stored.
func (r AttachmentResult) OK() bool {
	return r.Err == nil
}

// Warning returns the user-facing note for a failed attachment.
func (r AttachmentResult) Warning() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("⚠️ Failed to save %s: %v", r.Attachment.Kind, r.Err)
}

// AttachmentDir returns the directory holding attachments for dayKey.
func AttachmentDir(root, dayKey string) string {
	return filepath.Join(root, AttachmentsDirName, dayKey)
}

// RelativeLink returns the journal-relative path of a stored attachment. It
// always uses forward slashes so links render the same on every platform.
func RelativeLink(dayKey, fileName string) string {
	return "./" + AttachmentsDirName + "/" + dayKey + "/" + fileName
}

// Materializer downloads attachments into per-day attachment directories.
type Materializer struct {
	root    string
	timeout time.Duration
	locks   keyedMutex
	logger  *slog.Logger
}

// NewMaterializer creates a Materializer that stores files under
// root/attachments. A positive timeout bounds each download.
func NewMaterializer(root string, timeout time.Duration, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Materializer{
		root:    root,
		timeout: timeout,
		logger:  logger.With("component", "attachment_materializer"),
	}
}

// Materialize stores a single attachment for dayKey. at is the processing
// time used to synthesize names. Failures are reported in the result and
// never panic or abort the caller.
func (m *Materializer) Materialize(ctx context.Context, d Downloader, dayKey string, at time.Time, a Attachment) AttachmentResult {
	result := AttachmentResult{Attachment: a}
	log := m.logger.With("kind", a.Kind.String(), "file_id", a.FileID, "day", dayKey)

	if a.FileID == "" {
		result.Err = errors.New("attachment has no file reference")
		log.ErrorContext(ctx, "Cannot materialize attachment", "error", result.Err)
		return result
	}

	dir := AttachmentDir(m.root, dayKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Err = fmt.Errorf("failed to create attachment directory: %w", err)
		log.ErrorContext(ctx, "Cannot materialize attachment", "error", result.Err)
		return result
	}

	f, name, err := m.reserve(dir, DesiredFileName(a, at))
	if err != nil {
		result.Err = err
		log.ErrorContext(ctx, "Failed to reserve attachment file", "error", err)
		return result
	}
	path := filepath.Join(dir, name)
	log = log.With("path", path)
	log.InfoContext(ctx, "Downloading attachment")

	if err := m.download(ctx, d, a.FileID, f); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.WarnContext(ctx, "Failed to remove partial attachment", "error", rmErr)
		}
		result.Err = err
		log.ErrorContext(ctx, "Attachment download failed", "error", err)
		return result
	}

	result.FileName = name
	result.Link = markdownLink(a.Kind, dayKey, name)
	log.InfoContext(ctx, "Attachment saved")
	return result
}

func (m *Materializer) download(ctx context.Context, d Downloader, fileID string, f *os.File) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	downloadErr := d.Download(ctx, fileID, f)
	closeErr := f.Close()
	if downloadErr != nil {
		return downloadErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close attachment file: %w", closeErr)
	}
	return nil
}

// reserve allocates a free name in dir and creates it exclusively, holding the
// directory lock so no other attachment can be given the same name.
func (m *Materializer) reserve(dir, desired string) (*os.File, string, error) {
	unlock := m.locks.Lock(dir)
	defer unlock()

	for range maxReserveAttempts {
		name, err := AllocateFilename(dir, desired)
		if err != nil {
			return nil, "", err
		}
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create attachment file: %w", err)
		}
		return f, name, nil
	}
	return nil, "", fmt.Errorf("could not reserve a file name for %q after %d attempts", desired, maxReserveAttempts)
}

// DesiredFileName returns the name an attachment is stored under before
// collision handling: photo_HHMMSS.jpg for photos, the original name for
// documents, or file_HHMMSS when a document has none.
func DesiredFileName(a Attachment, at time.Time) string {
	stamp := at.Format(nameTimeLayout)
	if a.Kind == KindPhoto {
		return "photo_" + stamp + ".jpg"
	}
	if name := sanitizeFileName(a.FileName); name != "" {
		return name
	}
	return "file_" + stamp
}

// sanitizeFileName keeps a transport-supplied name inside the attachment
// directory.
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func markdownLink(kind AttachmentKind, dayKey, fileName string) string {
	rel := RelativeLink(dayKey, fileName)
	if kind == KindPhoto {
		return "![Photo](" + rel + ")"
	}
	return "[" + fileName + "](" + rel + ")"
}
