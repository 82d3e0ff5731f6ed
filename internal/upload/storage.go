package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"chillerdash/internal/errors"

	"github.com/google/uuid"
)

// FileStorage defines the interface for upload file storage operations
type FileStorage interface {
	// Store copies src under a unique name derived from filename and returns the stored path and size
	Store(ctx context.Context, src io.Reader, filename string) (string, int64, error)
	GetReader(ctx context.Context, filePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, filePath string) error
	List(ctx context.Context) ([]StoredFile, error)
}

// StoredFile describes a file found in storage
type StoredFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StorageConfig holds configuration for file storage
type StorageConfig struct {
	BasePath    string // Directory uploads are written to
	MaxFileSize int64  // Maximum file size in bytes, 0 for no limit
	ChunkSize   int    // Copy buffer size
}

// DefaultStorageConfig returns sensible defaults
func DefaultStorageConfig() *StorageConfig {
	return &StorageConfig{
		BasePath:    "data/uploads",
		MaxFileSize: 50 * 1024 * 1024, // 50MB
		ChunkSize:   1024 * 1024,      // 1MB
	}
}

// LocalFileStorage implements FileStorage using the local filesystem
type LocalFileStorage struct {
	config *StorageConfig
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(config *StorageConfig) *LocalFileStorage {
	if config == nil {
		config = DefaultStorageConfig()
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1024 * 1024
	}
	return &LocalFileStorage{config: config}
}

// NewLocalFileStorageWithPath creates a new local file storage rooted at basePath
func NewLocalFileStorageWithPath(basePath string) *LocalFileStorage {
	config := DefaultStorageConfig()
	config.BasePath = basePath
	return NewLocalFileStorage(config)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StoredName builds "<base>_<YYYYMMDD_HHMMSS>_<uuid8><ext>" from an uploaded file name
func StoredName(filename string, now time.Time) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(filename)
	baseName := unsafeNameChars.ReplaceAllString(strings.TrimSuffix(filename, ext), "_")
	if baseName == "" || baseName == "." {
		baseName = "upload"
	}
	return fmt.Sprintf("%s_%s_%s%s", baseName, now.Format("20060102_150405"), uuid.New().String()[:8], strings.ToLower(ext))
}

// Store saves src to the local filesystem with a unique name
func (s *LocalFileStorage) Store(ctx context.Context, src io.Reader, filename string) (string, int64, error) {
	if err := os.MkdirAll(s.config.BasePath, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create storage directory: %w", err)
	}

	filePath := filepath.Join(s.config.BasePath, StoredName(filename, time.Now()))
	destFile, err := os.Create(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	// Read one byte past the limit so oversized streams are detected
	reader := src
	if s.config.MaxFileSize > 0 {
		reader = io.LimitReader(src, s.config.MaxFileSize+1)
	}

	buf := make([]byte, s.config.ChunkSize)
	written, err := io.CopyBuffer(destFile, reader, buf)
	if err != nil {
		os.Remove(filePath)
		return "", 0, fmt.Errorf("failed to copy file contents: %w", err)
	}
	if s.config.MaxFileSize > 0 && written > s.config.MaxFileSize {
		os.Remove(filePath)
		return "", 0, errors.FileTooLarge(written, s.config.MaxFileSize)
	}

	return filePath, written, nil
}

// GetReader returns a reader for the stored file
func (s *LocalFileStorage) GetReader(ctx context.Context, filePath string) (io.ReadCloser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file from storage; deleting a missing file is not an error
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns the regular files in the storage directory, oldest first
func (s *LocalFileStorage) List(ctx context.Context) ([]StoredFile, error) {
	entries, err := os.ReadDir(s.config.BasePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Path:    filepath.Join(s.config.BasePath, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	return files, nil
}
