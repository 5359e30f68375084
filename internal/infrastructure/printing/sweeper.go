package printing

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Archiver copies a staged file somewhere durable before it is removed
type Archiver interface {
	Archive(ctx context.Context, key, localPath string) error
}

// SweeperConfig contains configuration for the retention sweeper
type SweeperConfig struct {
	Retention time.Duration
	Interval  time.Duration
	// Archiver is optional
	Archiver      Archiver
	ArchivePrefix string
	Logger        *zap.Logger
}

// RetentionSweeper periodically removes staged files older than the
// retention window, archiving them first when an Archiver is set. A file
// whose archive upload fails is kept for the next sweep.
type RetentionSweeper struct {
	stager *FileSystemStager
	config SweeperConfig
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetentionSweeper creates a RetentionSweeper
func NewRetentionSweeper(stager *FileSystemStager, config SweeperConfig) *RetentionSweeper {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionSweeper{stager: stager, config: config, logger: logger}
}

// Start runs sweeps every Interval until Stop. A zero retention disables
// the sweeper.
func (s *RetentionSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || s.config.Retention <= 0 {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOnce(ctx); err != nil {
					s.logger.Warn("staging sweep failed", zap.Error(err))
				}
			}
		}
	}()

	s.logger.Info("staging sweeper started",
		zap.Duration("retention", s.config.Retention),
		zap.Duration("interval", s.config.Interval),
		zap.Bool("archive", s.config.Archiver != nil),
	)
}

// Stop stops the sweeper and waits for a running sweep to finish
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
}

// SweepOnce removes expired staged files and returns how many were removed
func (s *RetentionSweeper) SweepOnce(ctx context.Context) (int, error) {
	files, err := s.stager.OlderThan(ctx, s.config.Retention)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		if s.config.Archiver != nil {
			key := path.Join(s.config.ArchivePrefix, f.ModTime.UTC().Format("2006/01/02"), f.Name)
			if err := s.config.Archiver.Archive(ctx, key, f.Path); err != nil {
				s.logger.Warn("failed to archive staged file",
					zap.String("file", f.Name),
					zap.Error(err),
				)
				continue
			}
		}

		if err := s.stager.Remove(f.Name); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove staged file", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("staged files swept", zap.Int("removed", removed), zap.Int("expired", len(files)))
	}
	if removed < len(files) {
		return removed, fmt.Errorf("%d of %d expired files were kept", len(files)-removed, len(files))
	}
	return removed, nil
}
