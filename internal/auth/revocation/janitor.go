package revocation

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically purges expired revocation entries. Purging is advisory
// housekeeping; skipping a cycle never affects verification outcomes.
type Janitor struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
	clock    Clock
}

// NewJanitor constructs a Janitor sweeping the store every interval.
func NewJanitor(store Store, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:    store,
		interval: interval,
		logger:   logger,
		clock:    time.Now,
	}
}

// Run sweeps until the context is cancelled. Purge failures are logged and the
// loop continues; the next cycle retries naturally.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	purged, err := j.store.PurgeExpired(ctx, j.clock())
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to purge expired revocation entries", "error", err)
		return
	}
	if purged > 0 {
		j.logger.InfoContext(ctx, "purged expired revocation entries", "count", purged)
	}
}
