package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/config"
)

// Port 1 is never a Redis server.
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestJobTrackerFactory_MemoryBackend(t *testing.T) {
	f := NewJobTrackerFactory(config.TrackerConfig{Backend: BackendMemory, TTL: time.Hour}, unreachableRedis)

	tracker, err := f.CreateTracker()
	require.NoError(t, err)
	defer tracker.Close()

	assert.IsType(t, &InMemoryJobTracker{}, tracker)
}

func TestJobTrackerFactory_RedisFallback(t *testing.T) {
	if testing.Short() {
		t.Skip("dials Redis")
	}
	cfg := config.TrackerConfig{Backend: BackendRedis, TTL: time.Hour}

	t.Run("falls back to memory", func(t *testing.T) {
		tracker, err := NewJobTrackerFactory(cfg, unreachableRedis).CreateTracker()
		require.NoError(t, err)
		defer tracker.Close()
		assert.IsType(t, &InMemoryJobTracker{}, tracker)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewJobTrackerFactory(cfg, unreachableRedis, WithInMemoryFallback(false)).CreateTracker()
		assert.Error(t, err)
	})
}
