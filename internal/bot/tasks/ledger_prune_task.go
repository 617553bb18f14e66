package tasks

import (
	"context"
	"fmt"

	"github.com/edgard/tgjournal/internal/journal"
)

// newLedgerPruneTask deletes ledger rows older than the retention window.
// Journal files are never touched.
func newLedgerPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "ledger_prune")

	return func(ctx context.Context) error {
		days := deps.Config.Database.RetentionDays
		if days <= 0 {
			log.DebugContext(ctx, "Ledger retention disabled, nothing to prune")
			return nil
		}

		cutoff := journal.DayKey(deps.Assembler.Now().AddDate(0, 0, -days))
		deleted, err := deps.Store.DeleteRecordsBeforeDay(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("ledger prune failed: %w", err)
		}

		log.InfoContext(ctx, "Ledger pruned", "before", cutoff, "deleted", deleted, "retention_days", days)
		return nil
	}
}
