package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfkeep/shelf/internal/state"
)

const maxBackoff = 30 * time.Second

type invalidator interface {
	Refresh()
}

type healthSource interface {
	Snapshot() state.Snapshot
}

// Refresher periodically invalidates every cached query so watched views
// refetch. It backs off while the service keeps failing.
type Refresher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartRefresher launches the refresh loop and returns immediately. A
// non-positive interval returns an idle Refresher.
func StartRefresher(ctx context.Context, target invalidator, health healthSource, interval time.Duration, logger *slog.Logger) *Refresher {
	r := &Refresher{done: make(chan struct{})}
	if interval <= 0 {
		r.cancel = func() {}
		close(r.done)
		return r
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, r.cancel = context.WithCancel(ctx)
	go func() {
		defer close(r.done)
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			target.Refresh()

			failures := health.Snapshot().ConsecutiveFailures
			next := calculateBackoff(failures, interval)
			if failures > 0 {
				logger.Debug("refresh backing off", "failures", failures, "next", next)
			}
			timer.Reset(next)
		}
	}()
	return r
}

// Shutdown stops the loop and waits for it to exit.
func (r *Refresher) Shutdown() error {
	r.once.Do(r.cancel)
	<-r.done
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff. A base above the cap is returned unchanged.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
