package cache

import (
	"context"
	"log/slog"
	"time"
)

// Sweep deletes expired entries once and logs the outcome.
func Sweep(ctx context.Context, store Store, l *slog.Logger) (int64, error) {
	n, err := store.DeleteExpired(ctx)
	if err != nil {
		l.ErrorContext(ctx, "cache sweep failed", "error", err)
		return 0, err
	}
	if n > 0 {
		l.InfoContext(ctx, "cache sweep removed expired entries", "deleted", n)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done. Individual sweep
// failures are logged and do not stop the loop.
func RunSweeper(ctx context.Context, store Store, interval time.Duration, l *slog.Logger) error {
	if l == nil {
		l = slog.Default()
	}
	l = l.With(slog.String("component", "cache_sweeper"))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.InfoContext(ctx, "cache sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			l.InfoContext(ctx, "cache sweeper stopped")
			return nil
		case <-ticker.C:
			_, _ = Sweep(ctx, store, l)
		}
	}
}
