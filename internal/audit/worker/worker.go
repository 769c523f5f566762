// Package worker runs the background sweep that closes idle audit sessions.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Reaper defines what the worker needs from the recorder service.
type Reaper interface {
	ReapIdle(ctx context.Context, idleFor time.Duration) (int, error)
}

// Worker periodically closes sessions whose clients went away without calling
// close. It keeps the sweep loop out of the service so the service stays a
// plain request/response object.
type Worker struct {
	reaper   Reaper
	logger   *slog.Logger
	interval time.Duration
	idleFor  time.Duration
}

func New(reaper Reaper, logger *slog.Logger, interval, idleFor time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	if idleFor <= 0 {
		idleFor = 30 * time.Minute
	}
	return &Worker{reaper: reaper, logger: logger, interval: interval, idleFor: idleFor}
}

// Run sweeps until the context is cancelled. Sweep failures are logged, not
// fatal; the next tick retries.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			reaped, err := w.reaper.ReapIdle(ctx, w.idleFor)
			if err != nil {
				w.logger.ErrorContext(ctx, "idle session sweep failed", "error", err)
				continue
			}
			if reaped > 0 {
				w.logger.InfoContext(ctx, "idle session sweep finished", "reaped", reaped)
			}
		}
	}
}
