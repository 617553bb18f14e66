// Package tasks implements the scheduled jobs: ledger maintenance and
// pruning, and the daily digest.
package tasks

import (
	"log/slog"

	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/database"
	"github.com/edgard/tgjournal/internal/gemini"
	"github.com/edgard/tgjournal/internal/journal"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	// GeminiClient is nil when no API key is configured.
	GeminiClient gemini.Client
	Config       *config.Config
	// Assembler provides the journal clock, time zone and paths.
	Assembler *journal.Assembler
}
