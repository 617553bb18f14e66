package journal

import (
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

// ErrInvalidDayKey is returned for day keys that are not YYYYMMDD dates.
var ErrInvalidDayKey = errors.New("invalid day key")

// Entry is one message record in a journal file.
type Entry struct {
	Time   time.Time
	Sender string
	Text   string
	Links  []string
}

// String renders the entry as "[HH:MM:SS] sender: text", a blank line, the
// attachment links one per line, and a trailing newline.
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s\n\n%s\n",
		e.Time.Format(EntryTimeLayout), e.Sender, e.Text, strings.Join(e.Links, "\n"))
}

// DayKey returns the YYYYMMDD key of the journal file t belongs to.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a YYYYMMDD key.
func ParseDayKey(dayKey string) (time.Time, error) {
	t, err := time.Parse(DayKeyLayout, dayKey)
	if err != nil || len(dayKey) != len(DayKeyLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, dayKey)
	}
	return t, nil
}

// Header returns the front matter written at the top of a new journal file.
func Header(dayKey string) (string, error) {
	day, err := ParseDayKey(dayKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("---\ndate: %s\ntype: telegram-messages\n---\n\n", day.Format(HeaderDateLayout)), nil
}

// Writer appends entries to per-day journal files under a root directory.
// Writes to the same day are serialized; the header is written exactly once,
// by whichever write creates the file.
type Writer struct {
	root   string
	locks  keyedMutex
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at root.
func NewWriter(root string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{
		root:   root,
		logger: logger.With("component", "journal_writer"),
	}
}

// Path returns the journal file path for dayKey.
func (w *Writer) Path(dayKey string) string {
	return filepath.Join(w.root, dayKey+".md")
}

// Append persists entry to the journal file for dayKey. Either the whole
// entry reaches the file or an error is returned and the file is left as it
// was before the call.
func (w *Writer) Append(dayKey, entry string) error {
	header, err := Header(dayKey)
	if err != nil {
		return err
	}

	unlock := w.locks.Lock(dayKey)
	defer unlock()

	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := w.Path(dayKey)
	created, err := w.create(path, header+entry)
	if err != nil {
		return err
	}
	if created {
		w.logger.Debug("Created journal file", "path", path, "bytes", len(header)+len(entry))
		return nil
	}

	if err := w.appendTo(path, "\n"+entry); err != nil {
		return err
	}
	w.logger.Debug("Appended to journal file", "path", path, "bytes", len(entry)+1)
	return nil
}

// create writes content to a new file at path. It reports false without
// error when the file already exists.
func (w *Writer) create(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create journal file %s: %w", path, err)
	}

	_, writeErr := f.WriteString(content)
	closeErr := f.Close()
	if writeErr == nil && closeErr == nil {
		return true, nil
	}

	if rmErr := os.Remove(path); rmErr != nil {
		w.logger.Error("Failed to remove incomplete journal file", "path", path, "error", rmErr)
	}
	if writeErr != nil {
		return false, fmt.Errorf("failed to write journal file %s: %w", path, writeErr)
	}
	return false, fmt.Errorf("failed to close journal file %s: %w", path, closeErr)
}

// appendTo appends content to an existing file, truncating back to the
// original size when the write fails part way.
func (w *Writer) appendTo(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal file %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat journal file %s: %w", path, err)
	}
	size := info.Size()

	writeErr, truncErr := appendWithRollback(f, size, content)
	if truncErr != nil {
		w.logger.Error("Failed to roll back partial journal write", "path", path, "error", truncErr)
	}
	closeErr := f.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to append to journal file %s: %w", path, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close journal file %s: %w", path, closeErr)
	}
	return nil
}

// truncatingWriter is the part of *os.File used by appendWithRollback.
type truncatingWriter interface {
	io.StringWriter
	Truncate(size int64) error
}

// appendWithRollback writes content and, if the write fails, truncates f
// back to size so no partial entry is left behind.
func appendWithRollback(f truncatingWriter, size int64, content string) (writeErr, truncErr error) {
	if _, writeErr = f.WriteString(content); writeErr != nil {
		truncErr = f.Truncate(size)
	}
	return writeErr, truncErr
}
