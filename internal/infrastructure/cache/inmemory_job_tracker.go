package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

const defaultCleanupInterval = time.Minute

type trackedJob struct {
	snapshot  printing.JobSnapshot
	expiresAt time.Time
}

// InMemoryJobTracker keeps job snapshots in a map with a TTL.
// Suitable for the single bridge process.
type InMemoryJobTracker struct {
	mu        sync.RWMutex
	jobs      map[uuid.UUID]trackedJob
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryJobTracker creates a tracker and starts its cleanup goroutine
func NewInMemoryJobTracker(ttl time.Duration) *InMemoryJobTracker {
	t := &InMemoryJobTracker{
		jobs:     make(map[uuid.UUID]trackedJob),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	t.wg.Add(1)
	go t.cleanupLoop(defaultCleanupInterval)

	return t
}

// Save stores the snapshot, replacing any older snapshot of the same job
func (t *InMemoryJobTracker) Save(_ context.Context, snapshot printing.JobSnapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs[snapshot.ID] = trackedJob{
		snapshot:  snapshot,
		expiresAt: t.now().Add(t.ttl),
	}
	return nil
}

// Get returns the snapshot of a job, or ErrJobNotFound if it is unknown or expired
func (t *InMemoryJobTracker) Get(_ context.Context, id uuid.UUID) (*printing.JobSnapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok || t.now().After(job.expiresAt) {
		return nil, app.ErrJobNotFound
	}
	snapshot := job.snapshot
	return &snapshot, nil
}

// Len returns the number of tracked jobs, including expired ones not yet cleaned up
func (t *InMemoryJobTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (t *InMemoryJobTracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
	return nil
}

func (t *InMemoryJobTracker) cleanupLoop(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.cleanup()
		}
	}
}

func (t *InMemoryJobTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, job := range t.jobs {
		if now.After(job.expiresAt) {
			delete(t.jobs, id)
		}
	}
}

var _ app.JobTracker = (*InMemoryJobTracker)(nil)
