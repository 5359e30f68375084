package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

func TestInMemoryJobTracker_SaveAndGet(t *testing.T) {
	tracker := NewInMemoryJobTracker(time.Hour)
	defer tracker.Close()

	ctx := context.Background()
	id := uuid.New()

	t.Run("unknown job", func(t *testing.T) {
		_, err := tracker.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, app.ErrJobNotFound)
	})

	t.Run("latest snapshot wins", func(t *testing.T) {
		require.NoError(t, tracker.Save(ctx, printing.JobSnapshot{ID: id, Status: printing.JobStatusReceived}))
		require.NoError(t, tracker.Save(ctx, printing.JobSnapshot{ID: id, Status: printing.JobStatusRendered, PageCount: 3}))

		snap, err := tracker.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, printing.JobStatusRendered, snap.Status)
		assert.Equal(t, 3, snap.PageCount)
		assert.Equal(t, 1, tracker.Len())
	})

	t.Run("returned snapshot is a copy", func(t *testing.T) {
		snap, err := tracker.Get(ctx, id)
		require.NoError(t, err)
		snap.PageCount = 99

		again, err := tracker.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, again.PageCount)
	})
}

func TestInMemoryJobTracker_Expiration(t *testing.T) {
	tracker := NewInMemoryJobTracker(time.Minute)
	defer tracker.Close()

	now := time.Now()
	tracker.now = func() time.Time { return now }

	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, tracker.Save(ctx, printing.JobSnapshot{ID: id}))

	_, err := tracker.Get(ctx, id)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tracker.Get(ctx, id)
	assert.ErrorIs(t, err, app.ErrJobNotFound)

	tracker.cleanup()
	assert.Equal(t, 0, tracker.Len())
}

func TestInMemoryJobTracker_CloseIsIdempotent(t *testing.T) {
	tracker := NewInMemoryJobTracker(time.Minute)
	assert.NoError(t, tracker.Close())
	assert.NoError(t, tracker.Close())
}
