package printing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArchiver struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (a *recordingArchiver) Archive(_ context.Context, key, localPath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("bucket unavailable")
	}
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	a.keys = append(a.keys, key)
	return nil
}

func stageAged(t *testing.T, s *FileSystemStager, name string, age time.Duration) string {
	t.Helper()
	path, err := s.Stage(context.Background(), uuid.New(), name, []byte(name))
	require.NoError(t, err)
	when := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, when, when))
	return path
}

func TestRetentionSweeper_SweepOnce(t *testing.T) {
	s := newTestStager(t)
	expired := stageAged(t, s, "old.pdf", 3*time.Hour)
	fresh := stageAged(t, s, "new.pdf", time.Minute)

	archiver := &recordingArchiver{}
	sweeper := NewRetentionSweeper(s, SweeperConfig{
		Retention:     time.Hour,
		Archiver:      archiver,
		ArchivePrefix: "staged",
	})

	removed, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, expired)
	assert.FileExists(t, fresh)

	require.Len(t, archiver.keys, 1)
	assert.True(t, strings.HasPrefix(archiver.keys[0], "staged/"))
	assert.True(t, strings.HasSuffix(archiver.keys[0], filepath.Base(expired)))
}

func TestRetentionSweeper_KeepsFilesWhenArchiveFails(t *testing.T) {
	s := newTestStager(t)
	expired := stageAged(t, s, "old.pdf", 3*time.Hour)

	sweeper := NewRetentionSweeper(s, SweeperConfig{Retention: time.Hour, Archiver: &recordingArchiver{fail: true}})

	removed, err := sweeper.SweepOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, removed)
	assert.FileExists(t, expired)
}

func TestRetentionSweeper_StartStop(t *testing.T) {
	s := newTestStager(t)
	expired := stageAged(t, s, "old.pdf", 3*time.Hour)

	sweeper := NewRetentionSweeper(s, SweeperConfig{Retention: time.Hour, Interval: 10 * time.Millisecond})
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(expired)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}

func TestRetentionSweeper_ZeroRetentionDisabled(t *testing.T) {
	s := newTestStager(t)
	expired := stageAged(t, s, "old.pdf", 3*time.Hour)

	sweeper := NewRetentionSweeper(s, SweeperConfig{Interval: 5 * time.Millisecond})
	sweeper.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()

	assert.FileExists(t, expired)
}
