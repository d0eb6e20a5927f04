package jobs

import (
	"context"
	"log"
	"time"

	"github.com/taogeht/reading-practice-app-sub000/internal/auth"
	"github.com/taogeht/reading-practice-app-sub000/internal/config"
	"github.com/taogeht/reading-practice-app-sub000/internal/logging"
)

// StartSessionSweepJob periodically deletes expired session rows. Lazy
// deletion on lookup remains the primary cleanup; the sweep only bounds the
// table size for tokens that are never presented again.
func StartSessionSweepJob(ctx context.Context, cfg config.Config, sessions *auth.Sessions) {
	if !cfg.SessionSweepEnabled {
		return
	}
	interval := cfg.SessionSweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	timeout := cfg.SessionSweepTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				deleted, err := sessions.SweepExpired(tickCtx)
				cancel()
				if err != nil {
					logging.Errorf("session sweep error", err)
					continue
				}
				if deleted > 0 {
					log.Printf("session sweep removed %d expired sessions", deleted)
				}
			}
		}
	}()
}
