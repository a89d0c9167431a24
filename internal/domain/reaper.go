package domain

import (
	"context"
	"log/slog"
	"time"
)

// Reaper closes channels that stayed silent, heartbeats included, for longer
// than the idle timeout.
type Reaper struct {
	registry *Registry
	idle     time.Duration
	interval time.Duration
}

func NewReaper(registry *Registry, idle, interval time.Duration) *Reaper {
	return &Reaper{registry: registry, idle: idle, interval: interval}
}

func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "context done, stopping reaper")
			return nil
		case <-ticker.C:
			if users := r.registry.Sweep(ctx, r.idle); len(users) > 0 {
				slog.InfoContext(ctx, "closed idle channels", "count", len(users))
			}
		}
	}
}
