package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/tgjournal/internal/logger"
)

// Store defines the interface for ledger operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordMessage stores the outcome of one processed message. Recording
	// the same (chat, message) twice keeps the first record.
	RecordMessage(ctx context.Context, record *MessageRecord) error

	// HasMessage reports whether the message was already processed.
	HasMessage(ctx context.Context, chatID, messageID int64) (bool, error)

	// GetDayStats aggregates the records of one day.
	GetDayStats(ctx context.Context, dayKey string) (DayStats, error)

	// DeleteRecordsBeforeDay removes records filed before dayKey and returns
	// how many were deleted.
	DeleteRecordsBeforeDay(ctx context.Context, dayKey string) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		logger: log.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordMessage inserts a ledger record, ignoring duplicates.
func (s *sqlxStore) RecordMessage(ctx context.Context, record *MessageRecord) error {
	if record == nil {
		return errors.New("cannot record nil message")
	}
	if record.ChatID == 0 {
		return errors.New("record must have a non-zero chat_id")
	}
	if record.DayKey == "" {
		return errors.New("record must have a day_key")
	}
	if record.Status != StatusSaved && record.Status != StatusFailed {
		return fmt.Errorf("invalid record status %q", record.Status)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO journal_messages
            (chat_id, message_id, user_id, sender, day_key, status, attachments_saved, attachments_failed, error, created_at)
        VALUES
            (:chat_id, :message_id, :user_id, :sender, :day_key, :status, :attachments_saved, :attachments_failed, :error, :created_at)
        ON CONFLICT (chat_id, message_id) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording message",
			"chat_id", record.ChatID, "message_id", record.MessageID, "error", err)
		return fmt.Errorf("failed to record message (chat %d, message %d): %w", record.ChatID, record.MessageID, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		s.logger.WarnContext(ctx, "Message already recorded, keeping the first record",
			"chat_id", record.ChatID, "message_id", record.MessageID)
		return nil
	}
	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
	}

	s.logger.DebugContext(ctx, "Message recorded",
		"chat_id", record.ChatID, "message_id", record.MessageID, "status", record.Status)
	return nil
}

// HasMessage reports whether (chatID, messageID) is in the ledger.
func (s *sqlxStore) HasMessage(ctx context.Context, chatID, messageID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM journal_messages WHERE chat_id = ? AND message_id = ?);`
	if err := s.db.GetContext(ctx, &exists, query, chatID, messageID); err != nil {
		return false, fmt.Errorf("failed to look up message (chat %d, message %d): %w", chatID, messageID, err)
	}
	return exists, nil
}

// GetDayStats aggregates one day's records. A day without records yields
// zero counts.
func (s *sqlxStore) GetDayStats(ctx context.Context, dayKey string) (DayStats, error) {
	stats := DayStats{DayKey: dayKey}
	query := `
        SELECT
            COUNT(*)                                                  AS messages,
            COALESCE(SUM(CASE WHEN status = 'saved' THEN 1 ELSE 0 END), 0)  AS saved,
            COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed,
            COALESCE(SUM(attachments_saved), 0)                       AS attachments_saved,
            COALESCE(SUM(attachments_failed), 0)                      AS attachments_failed
        FROM journal_messages
        WHERE day_key = ?;
    `
	row := s.db.QueryRowxContext(ctx, query, dayKey)
	if err := row.Scan(&stats.Messages, &stats.Saved, &stats.Failed, &stats.AttachmentsSaved, &stats.AttachmentsFailed); err != nil {
		s.logger.ErrorContext(ctx, "Error getting day stats", "day_key", dayKey, "error", err)
		return DayStats{}, fmt.Errorf("failed to get stats for %s: %w", dayKey, err)
	}
	return stats, nil
}

// DeleteRecordsBeforeDay removes records whose day_key sorts before dayKey.
// Day keys are YYYYMMDD, so string order is date order.
func (s *sqlxStore) DeleteRecordsBeforeDay(ctx context.Context, dayKey string) (int64, error) {
	if dayKey == "" {
		return 0, errors.New("day key cannot be empty")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM journal_messages WHERE day_key < ?;`, dayKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning ledger", "before", dayKey, "error", err)
		return 0, fmt.Errorf("failed to delete records before %s: %w", dayKey, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted records: %w", err)
	}
	s.logger.InfoContext(ctx, "Pruned ledger records", "before", dayKey, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance executes VACUUM and ANALYZE on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
			return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
		}
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		s.logger.WarnContext(ctx, "ANALYZE failed after VACUUM", "error", err)
		return fmt.Errorf("failed to execute ANALYZE: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
