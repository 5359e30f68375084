package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

func redisClientForTest(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis test in short mode")
	}

	addr := os.Getenv("EPG_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not reachable at %s: %v", addr, err)
	}
	return client
}

func TestRedisJobTracker_SaveAndGet(t *testing.T) {
	client := redisClientForTest(t)
	prefix := "epg:test:" + uuid.NewString() + ":"
	tracker := NewRedisJobTrackerWithClient(client, prefix, time.Minute)
	defer tracker.Close()

	ctx := context.Background()
	id := uuid.New()

	_, err := tracker.Get(ctx, id)
	assert.ErrorIs(t, err, app.ErrJobNotFound)

	snapshot := printing.JobSnapshot{
		ID:          id,
		Channel:     printing.SourceChannelHTTPUpload,
		FileName:    "invoice.pdf",
		PrinterName: "Office",
		Copies:      2,
		Status:      printing.JobStatusCompleted,
		Class:       printing.PrinterClassPaper,
		PageCount:   4,
	}
	require.NoError(t, tracker.Save(ctx, snapshot))

	got, err := tracker.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snapshot.FileName, got.FileName)
	assert.Equal(t, snapshot.Status, got.Status)
	assert.Equal(t, snapshot.PageCount, got.PageCount)

	ttl, err := client.TTL(ctx, prefix+id.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	client.Del(ctx, prefix+id.String())
}

func TestNewRedisJobTrackerWithClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	tracker := NewRedisJobTrackerWithClient(client, "", time.Minute)
	id := uuid.New()
	assert.Equal(t, "epg:job:"+id.String(), tracker.key(id))
}
