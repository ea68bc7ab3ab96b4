package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/twxlab/twx/internal/metrics"
	"github.com/twxlab/twx/internal/repo"
)

// Run starts a background cron that sweeps the fleet for stale
// inspections and refreshes the pending-transfers gauge. overdueDays is
// the staleness cutoff; cronExpr is a standard 5-field cron expression.
// Returns the started cron so callers can Stop it on shutdown.
func Run(elementRepo *repo.ElementRepo, transferRepo *repo.TransferRepo, overdueDays int, cronExpr string) (*cron.Cron, error) {
	c := cron.New()

	sweep := func() {
		ctx := context.Background()

		overdue, err := elementRepo.CountMissingRecentInspection(ctx, overdueDays)
		if err != nil {
			slog.Error("inspection sweep: count overdue", "error", err)
		} else {
			metrics.SetInspectionsOverdue(overdue)
			if overdue > 0 {
				slog.Warn("inspection sweep: elements overdue for inspection",
					"count", overdue,
					"cutoff_days", overdueDays)
			}
		}

		pending, err := transferRepo.CountPending(ctx)
		if err != nil {
			slog.Error("inspection sweep: count pending transfers", "error", err)
			return
		}
		metrics.SetTransfersPending(pending)
	}

	if _, err := c.AddFunc(cronExpr, sweep); err != nil {
		return nil, err
	}

	// Prime the gauges at startup rather than waiting for the first tick.
	go sweep()

	c.Start()
	return c, nil
}
