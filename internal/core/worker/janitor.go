package worker

import (
	"context"
	"log/slog"
	"time"
)

// ResponsePurger deletes idempotency responses saved before a cutoff.
type ResponsePurger interface {
	PurgeResponses(ctx context.Context, before time.Time) (int64, error)
}

// StartIdempotencyJanitor deletes stored idempotency responses older than
// retention, once at start and then every interval, until ctx is done. The
// returned channel is closed when the loop has exited.
func StartIdempotencyJanitor(ctx context.Context, store ResponsePurger, retention, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		slog.Info("👷 Idempotency janitor started", "retention", retention, "interval", interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			sweep(ctx, store, time.Now().Add(-retention))
			select {
			case <-ctx.Done():
				slog.Info("Idempotency janitor stopped")
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}

func sweep(ctx context.Context, store ResponsePurger, cutoff time.Time) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := store.PurgeResponses(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Janitor: failed to purge idempotency keys", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("Janitor: purged idempotency keys", "count", n, "cutoff", cutoff)
	}
}
