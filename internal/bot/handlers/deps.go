// Package handlers contains the Telegram update handlers that feed the
// journal, the informational commands and their middleware.
package handlers

import (
	"log/slog"

	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/database"
	"github.com/edgard/tgjournal/internal/journal"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Assembler *journal.Assembler
}
