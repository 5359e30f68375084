package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ythchandraap/expert-printer-guide/internal/domain/printing"
	"go.uber.org/zap"
)

const maxStagedNameLength = 128

// ErrInvalidStagedName is returned for names that would escape the staging directory
var ErrInvalidStagedName = errors.New("invalid staged file name")

// FileSystemStagerConfig contains configuration for the staging store
type FileSystemStagerConfig struct {
	// BaseDir is where staged documents are written
	BaseDir string
	Logger  *zap.Logger
}

// StagedFile describes one file in the staging directory
type StagedFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// FileSystemStager writes uploaded documents to a local directory so the
// rendering surface can load them through the viewer
type FileSystemStager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileSystemStager creates the staging directory if needed
func NewFileSystemStager(config *FileSystemStagerConfig) (*FileSystemStager, error) {
	if config == nil || config.BaseDir == "" {
		return nil, printing.NewStagingError(printing.ErrCodeWriteFailed, "staging directory is not configured", nil)
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, printing.NewStagingError(printing.ErrCodeWriteFailed, "failed to resolve staging directory", err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, printing.NewStagingError(printing.ErrCodeWriteFailed,
			fmt.Sprintf("failed to create staging directory: %s", baseDir), err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileSystemStager{baseDir: baseDir, logger: logger}, nil
}

// Dir returns the absolute staging directory
func (s *FileSystemStager) Dir() string {
	return s.baseDir
}

// Stage writes data as {jobID}-{sanitized name} and verifies the file
// exists before returning its absolute path.
func (s *FileSystemStager) Stage(ctx context.Context, jobID uuid.UUID, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", printing.NewStagingError(printing.ErrCodeWriteFailed, "File save failed", err)
	}
	if jobID == uuid.Nil {
		return "", printing.NewStagingError(printing.ErrCodeWriteFailed, "File save failed", errors.New("job ID is required"))
	}

	name := jobID.String() + "-" + SanitizeFileName(fileName)
	path := filepath.Join(s.baseDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", printing.NewStagingError(printing.ErrCodeWriteFailed, "File save failed", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() != int64(len(data)) {
		if err == nil {
			err = fmt.Errorf("staged %d of %d bytes", info.Size(), len(data))
		}
		return "", printing.NewStagingError(printing.ErrCodeFileMissing, "File not found", err)
	}

	s.logger.Debug("document staged",
		zap.String("job_id", jobID.String()),
		zap.String("path", path),
		zap.Int("size", len(data)),
	)
	return path, nil
}

// Resolve maps a bare staged file name to its absolute path. Names with
// separators or parent references are rejected.
func (s *FileSystemStager) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		s.logger.Warn("blocked staged file lookup", zap.String("name", name))
		return "", ErrInvalidStagedName
	}

	path := filepath.Join(s.baseDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// OlderThan lists staged files last modified before now-age, oldest first
func (s *FileSystemStager) OlderThan(ctx context.Context, age time.Duration) ([]StagedFile, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-age)
	var files []StagedFile
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			files = append(files, StagedFile{
				Name:    entry.Name(),
				Path:    filepath.Join(s.baseDir, entry.Name()),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	return files, nil
}

// Remove deletes a staged file by name. Missing files are not an error.
func (s *FileSystemStager) Remove(name string) error {
	path, err := s.Resolve(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SanitizeFileName reduces a client-supplied name to a safe base name
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if strings.Trim(cleaned, "_") == "" {
		return printing.DefaultFileName
	}
	if len(cleaned) > maxStagedNameLength {
		ext := filepath.Ext(cleaned)
		if len(ext) > 16 {
			ext = ""
		}
		cleaned = cleaned[:maxStagedNameLength-len(ext)] + ext
	}
	return cleaned
}
