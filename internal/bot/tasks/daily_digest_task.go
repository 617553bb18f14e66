package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/edgard/tgjournal/internal/journal"
)

const digestFrontMatter = "---\ndate: %s\ntype: telegram-digest\n---\n\n"

// newDailyDigestTask summarizes yesterday's journal into its own file under
// the digests directory. Days without a journal or with an existing digest
// are skipped.
func newDailyDigestTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_digest")

	return func(ctx context.Context) error {
		if deps.GeminiClient == nil {
			log.DebugContext(ctx, "Gemini client not configured, skipping digest")
			return nil
		}

		dayKey := journal.DayKey(deps.Assembler.Now().AddDate(0, 0, -1))
		digestPath := deps.Assembler.DigestPath(dayKey)

		if _, err := os.Stat(digestPath); err == nil {
			log.InfoContext(ctx, "Digest already exists, skipping", "day_key", dayKey, "path", digestPath)
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check digest %s: %w", digestPath, err)
		}

		content, err := os.ReadFile(deps.Assembler.JournalPath(dayKey))
		if errors.Is(err, fs.ErrNotExist) {
			log.InfoContext(ctx, "No journal for day, skipping digest", "day_key", dayKey)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read journal for %s: %w", dayKey, err)
		}

		startTime := time.Now()
		summary, err := deps.GeminiClient.Summarize(ctx, dayKey, string(content))
		if err != nil {
			return fmt.Errorf("failed to summarize %s: %w", dayKey, err)
		}

		day, err := journal.ParseDayKey(dayKey)
		if err != nil {
			return err
		}
		body := fmt.Sprintf(digestFrontMatter, day.Format("2006-01-02")) + summary + "\n"
		if err := writeFileAtomic(digestPath, []byte(body)); err != nil {
			return fmt.Errorf("failed to write digest: %w", err)
		}

		log.InfoContext(ctx, "Digest written", "day_key", dayKey, "path", digestPath, "duration", time.Since(startTime))
		return nil
	}
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".digest-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
