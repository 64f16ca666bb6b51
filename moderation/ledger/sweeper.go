package ledger

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper periodically purges expired mute/ban rows. Correctness never
// depends on it (reads expire lazily); it only keeps the tables small.
// Expects to be run in a goroutine; returns when ctx is cancelled.
func RunSweeper(ctx context.Context, store Store, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.SweepExpired(ctx, time.Now())
			if err != nil {
				logger.Error("sanction sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("swept expired sanctions", "count", n)
			}
		}
	}
}
