// Package jobs holds the background loops started next to the HTTP server.
package jobs

import (
	"context"
	"time"

	logx "github.com/tienchung1704/real-dinhanstore/logger"
)

type PendingExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time) (int, error)
}

// SweepPendingOrders cancels unpaid online orders older than maxAge, once at
// start and then every interval, until ctx is done.
func SweepPendingOrders(ctx context.Context, orders PendingExpirer, maxAge, interval time.Duration) {
	logx.Info().Dur("max_age", maxAge).Dur("interval", interval).Msg("pending order sweeper started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweepOnce(ctx, orders, time.Now().Add(-maxAge))
		select {
		case <-ctx.Done():
			logx.Info().Msg("pending order sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweepOnce(ctx context.Context, orders PendingExpirer, cutoff time.Time) {
	n, err := orders.ExpirePending(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			logx.Error().Err(err).Msg("failed to expire pending orders")
		}
		return
	}
	if n > 0 {
		logx.Info().Int("cancelled", n).Time("cutoff", cutoff).Msg("expired pending orders")
	}
}
