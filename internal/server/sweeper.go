// sweeper.go - periodic purge of metadata rows past their retention window.
//
// Blob deletion is deliberately not performed here: the metadata row is the
// user-facing authority on whether a file exists, and orphaned blobs are
// absorbed by the bucket's own tag-based lifecycle rule.
package server

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// ExpiryStore is the slice of MetadataStore the sweeper needs.
type ExpiryStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper deletes expired metadata rows on a fixed period. At most one
// sweep is active at a time; a trigger that fires mid-sweep is a no-op.
type Sweeper struct {
	store    ExpiryStore
	interval time.Duration
	now      func() time.Time
	sweeping atomic.Bool
}

// NewSweeper builds a sweeper with the wall clock. Tests swap the clock via
// the now field.
func NewSweeper(store ExpiryStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("service=sweeper msg=%q interval=%s", "starting", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=sweeper msg=%q", "shutting_down")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce runs a single idle -> sweeping -> idle cycle. Returns false if
// a sweep was already in progress and this trigger was dropped.
func (s *Sweeper) sweepOnce(ctx context.Context) bool {
	if !s.sweeping.CompareAndSwap(false, true) {
		log.Printf("service=sweeper msg=%q", "sweep_already_running")
		return false
	}
	defer s.sweeping.Store(false)

	start := s.now()
	deleted, err := s.store.DeleteExpired(ctx, start)
	if err != nil {
		log.Printf("service=sweeper msg=%q err=%v", "sweep_failed", err)
		return true
	}

	if deleted > 0 {
		log.Printf("service=sweeper msg=%q deleted=%d duration_ms=%d",
			"sweep_complete", deleted, s.now().Sub(start).Milliseconds())
	}
	return true
}
