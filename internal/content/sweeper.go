package content

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartSweeper gets a non-positive interval.
const DefaultSweepInterval = time.Minute

// StartSweeper runs a background goroutine that periodically drops stale
// content until ctx is done.
func StartSweeper(ctx context.Context, svc *Service, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Content sweeper started", "interval", interval, "ttl", svc.ttl)

		for {
			select {
			case <-ticker.C:
				sweepOnce(ctx, svc)
			case <-ctx.Done():
				slog.Info("Content sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(ctx context.Context, svc *Service) {
	n, err := svc.Sweep(ctx)
	if err != nil {
		slog.Error("Content sweeper failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Content sweeper removed stale entries", "count", n)
	}
}
