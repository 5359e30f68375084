package cache

import (
	"fmt"

	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"github.com/ythchandraap/expert-printer-guide/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Tracker backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// TrackerCloser is a job tracker owning resources that must be released on shutdown
type TrackerCloser interface {
	app.JobTracker
	Close() error
}

// JobTrackerFactory creates job trackers based on configuration
type JobTrackerFactory struct {
	trackerConfig         config.TrackerConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// JobTrackerFactoryOption is a functional option for configuring the factory
type JobTrackerFactoryOption func(*JobTrackerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) JobTrackerFactoryOption {
	return func(f *JobTrackerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory tracker. Default is true.
func WithInMemoryFallback(allow bool) JobTrackerFactoryOption {
	return func(f *JobTrackerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewJobTrackerFactory creates a new factory
func NewJobTrackerFactory(trackerCfg config.TrackerConfig, redisCfg config.RedisConfig, opts ...JobTrackerFactoryOption) *JobTrackerFactory {
	f := &JobTrackerFactory{
		trackerConfig:         trackerCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisTracker creates a Redis-backed tracker
func (f *JobTrackerFactory) CreateRedisTracker() (*RedisJobTracker, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	tracker, err := NewRedisJobTracker(redisCfg, f.trackerConfig.KeyPrefix, f.trackerConfig.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis job tracker: %w", err)
	}
	return tracker, nil
}

// CreateInMemoryTracker creates an in-memory tracker.
// Snapshots are not shared across bridge processes.
func (f *JobTrackerFactory) CreateInMemoryTracker() *InMemoryJobTracker {
	return NewInMemoryJobTracker(f.trackerConfig.TTL)
}

// CreateTracker creates the configured tracker. A redis backend that cannot
// be reached falls back to memory unless fallback was disabled.
func (f *JobTrackerFactory) CreateTracker() (TrackerCloser, error) {
	if f.trackerConfig.Backend != BackendRedis {
		f.logger.Info("using in-memory job tracker")
		return f.CreateInMemoryTracker(), nil
	}

	tracker, err := f.CreateRedisTracker()
	if err == nil {
		f.logger.Info("using Redis job tracker", zap.String("addr", f.redisConfig.Addr()))
		return tracker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for job tracking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory job tracker. "+
		"Job status will not be shared between bridge processes.",
		zap.Error(err),
	)
	return f.CreateInMemoryTracker(), nil
}
