package usecase

import (
	"context"
	"time"
)

// StartPolling runs one cycle immediately and then one per interval until ctx is done.
// Cycle errors are logged and the loop keeps going.
func (w *FlightWatcher) StartPolling(ctx context.Context, interval time.Duration) {
	w.runCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Flight watcher stopped")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *FlightWatcher) runCycle(ctx context.Context) {
	w.logger.Info("Checking flight board")
	if _, err := w.Run(ctx); err != nil {
		w.logger.Error("Error running flight watcher", "error", err)
	}
}
