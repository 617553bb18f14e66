package logger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-co-op/gocron/v2"
)

// gocronLogger forwards gocron's internal logging to slog.
type gocronLogger struct {
	log *slog.Logger
}

// NewGocronLogger returns a gocron.Logger backed by log. gocron's own
// "gocron: " prefix is dropped since the component attribute carries it.
//
//nolint:ireturn // Interface return is required by gocron's API contract
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	if log == nil {
		log = Discard()
	}
	return &gocronLogger{log: log}
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.emit(slog.LevelDebug, msg, args) }
func (l *gocronLogger) Info(msg string, args ...any)  { l.emit(slog.LevelInfo, msg, args) }
func (l *gocronLogger) Warn(msg string, args ...any)  { l.emit(slog.LevelWarn, msg, args) }
func (l *gocronLogger) Error(msg string, args ...any) { l.emit(slog.LevelError, msg, args) }

func (l *gocronLogger) emit(level slog.Level, msg string, args []any) {
	msg = strings.TrimPrefix(msg, "gocron: ")
	l.log.Log(context.Background(), level, msg, args...)
}
