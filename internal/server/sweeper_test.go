package server

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingStore captures the instants passed to DeleteExpired.
type recordingStore struct {
	mu    sync.Mutex
	calls []time.Time
}

func (s *recordingStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, now)
	return 0, nil
}

// blockingStore parks DeleteExpired until released, to provoke overlap.
type blockingStore struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	close(s.started)
	<-s.release
	return 0, nil
}

func TestSweepUsesInjectedClock(t *testing.T) {
	store := &recordingStore{}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := NewSweeper(store, time.Minute)
	s.now = func() time.Time { return fixed }

	if !s.sweepOnce(context.Background()) {
		t.Fatal("sweep should have run")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.calls) != 1 {
		t.Fatalf("expected one sweep, got %d", len(store.calls))
	}
	if !store.calls[0].Equal(fixed) {
		t.Errorf("expected cutoff %v, got %v", fixed, store.calls[0])
	}
}

func TestSweepsNeverOverlap(t *testing.T) {
	store := &blockingStore{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewSweeper(store, time.Minute)

	done := make(chan struct{})
	go func() {
		s.sweepOnce(context.Background())
		close(done)
	}()

	<-store.started

	// A trigger firing mid-sweep must be a no-op.
	if s.sweepOnce(context.Background()) {
		t.Error("second sweep ran while the first was still active")
	}

	close(store.release)
	<-done

	// Once idle again the next trigger runs normally.
	store.release = make(chan struct{})
	close(store.release)
	store.started = make(chan struct{})
	if !s.sweepOnce(context.Background()) {
		t.Error("sweep should run after the previous one finished")
	}
}

// deletingStore reports a fixed number of purged rows.
type deletingStore struct{ deleted int64 }

func (s *deletingStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.deleted, nil
}

func TestSweepDurationComesFromInjectedClock(t *testing.T) {
	s := NewSweeper(&deletingStore{deleted: 3}, time.Minute)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(250 * time.Millisecond)}
	var calls int
	s.now = func() time.Time {
		t := ticks[calls%len(ticks)]
		calls++
		return t
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	s.sweepOnce(context.Background())

	if !strings.Contains(buf.String(), "duration_ms=250") {
		t.Errorf("duration must be measured on the injected clock, got: %s", buf.String())
	}
}

func TestSweepPurgesOnlyExpiredRows(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	expired, _ := store.InsertPending(ctx, "old.txt")
	expired.RetentionHours = 1
	if err := store.Finalize(ctx, expired); err != nil {
		t.Fatal(err)
	}
	store.mu.Lock()
	store.rows[expired.ID].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	store.mu.Unlock()

	fresh, _ := store.InsertPending(ctx, "new.txt")
	fresh.RetentionHours = 24
	if err := store.Finalize(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(store, time.Minute)
	for i := 0; i < 3; i++ {
		s.sweepOnce(ctx)
	}

	if _, ok := store.row(expired.ID); ok {
		t.Error("expired row must be gone after the sweep")
	}
	if _, ok := store.row(fresh.ID); !ok {
		t.Error("row inside its retention window must survive repeated sweeps")
	}
}

func TestZeroRetentionExpiresImmediately(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	f, _ := store.InsertPending(ctx, "ephemeral.txt")
	f.RetentionHours = 0
	if err := store.Finalize(ctx, f); err != nil {
		t.Fatal(err)
	}

	s := NewSweeper(store, time.Minute)
	s.now = func() time.Time { return time.Now().UTC().Add(time.Second) }
	s.sweepOnce(ctx)

	if _, ok := store.row(f.ID); ok {
		t.Error("zero-retention row must be purged by the next sweep")
	}
}
