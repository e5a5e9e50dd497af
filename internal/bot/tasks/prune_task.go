package tasks

import (
	"context"
	"time"
)

// newLedgerPruneTask creates the scheduled task that sweeps expired records
// out of the message ledger. Reads already prune lazily; the sweep keeps
// memory bounded in chats that went quiet.
func newLedgerPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "ledger_prune")

	return func(ctx context.Context) error {
		start := time.Now()
		deps.Log.PruneAll(start)
		log.DebugContext(ctx, "Ledger prune sweep completed", "duration", time.Since(start))
		return nil
	}
}
