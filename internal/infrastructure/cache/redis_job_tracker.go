package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
)

const defaultKeyPrefix = "epg:job:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisJobTracker stores job snapshots as JSON with a TTL, so several
// bridge processes can answer status queries for each other
type RedisJobTracker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisJobTracker connects to Redis and creates a tracker
func NewRedisJobTracker(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisJobTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisJobTrackerWithClient(client, keyPrefix, ttl), nil
}

// NewRedisJobTrackerWithClient creates a tracker with an existing client
func NewRedisJobTrackerWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisJobTracker {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisJobTracker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Save stores the snapshot under {prefix}{job id}
func (t *RedisJobTracker) Save(ctx context.Context, snapshot printing.JobSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode job snapshot: %w", err)
	}
	if err := t.client.Set(ctx, t.key(snapshot.ID), data, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot of a job, or ErrJobNotFound if the key is missing
func (t *RedisJobTracker) Get(ctx context.Context, id uuid.UUID) (*printing.JobSnapshot, error) {
	data, err := t.client.Get(ctx, t.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, app.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job snapshot: %w", err)
	}

	var snapshot printing.JobSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode job snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the Redis client
func (t *RedisJobTracker) Close() error {
	return t.client.Close()
}

func (t *RedisJobTracker) key(id uuid.UUID) string {
	return t.keyPrefix + id.String()
}

var _ app.JobTracker = (*RedisJobTracker)(nil)
