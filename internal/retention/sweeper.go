// Package retention bounds chat storage growth by discarding old messages.
package retention

import (
	"context"
	"log"
	"time"

	"github.com/techwave453-del/CYA-kenya/internal/observability"
	"github.com/techwave453-del/CYA-kenya/internal/repositories"
)

// Sweeper periodically purges messages past the retention window. The store
// also purges lazily on reads; the sweeper covers idle periods. No expired
// event is broadcast, so clients may show a purged message until their next
// full reload.
type Sweeper struct {
	repo     repositories.MessageRepository
	interval time.Duration
	window   time.Duration
}

// NewSweeper builds a Sweeper over repo.
func NewSweeper(repo repositories.MessageRepository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{repo: repo, interval: interval, window: repositories.RetentionWindow}
}

// Run purges on a fixed ticker until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs a single purge pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.window)
	purged, err := s.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("retention sweep failed: %v", err)
		return
	}
	if purged > 0 {
		observability.AddPurgedMessages(purged)
		log.Printf("retention sweep removed %d messages", purged)
	}
}
