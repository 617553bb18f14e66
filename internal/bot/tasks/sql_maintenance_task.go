package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask compacts and re-analyzes the message ledger. It
// shares the ledger's single connection, so handlers wait while it runs.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		if deps.Store == nil {
			log.DebugContext(ctx, "Message ledger not configured, skipping maintenance")
			return nil
		}

		startTime := time.Now()
		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			return fmt.Errorf("ledger maintenance failed after %s: %w", time.Since(startTime).Round(time.Millisecond), err)
		}

		log.InfoContext(ctx, "Message ledger compacted", "duration", time.Since(startTime))
		return nil
	}
}
