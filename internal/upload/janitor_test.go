package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
	domainUpload "chillerdash/domain/upload"
	"chillerdash/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) Save(ctx context.Context, cm *mapping.ColumnMapping) error {
	return m.Called(ctx, cm).Error(0)
}

func (m *MockMappingRepository) GetByUpload(ctx context.Context, uploadID core.ID) (*mapping.ColumnMapping, error) {
	args := m.Called(ctx, uploadID)
	if cm, ok := args.Get(0).(*mapping.ColumnMapping); ok {
		return cm, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMappingRepository) DeleteByUpload(ctx context.Context, uploadID core.ID) error {
	return m.Called(ctx, uploadID).Error(0)
}

func writeAged(t *testing.T, dir, name string, modTime time.Time) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("kW\n1\n"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestJanitorSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	expiredPath := writeAged(t, dir, "old.csv", now.Add(-72*time.Hour))
	strayPath := writeAged(t, dir, "stray.csv", now.Add(-48*time.Hour))
	freshPath := writeAged(t, dir, "fresh.csv", now.Add(-time.Hour))

	expired := domainUpload.New("old.csv")
	expired.StoredPath = expiredPath

	repo := new(MockUploadRepository)
	repo.On("ListOlderThan", mock.Anything, now.Add(-24*time.Hour)).Return([]*domainUpload.Upload{expired}, nil)
	repo.On("Delete", mock.Anything, expired.ID).Return(nil)

	mappings := new(MockMappingRepository)
	mappings.On("DeleteByUpload", mock.Anything, expired.ID).Return(nil)

	logger := internal.NewLoggerWithWriter(internal.LogLevelError, &bytes.Buffer{})
	j := NewJanitor(repo, mappings, NewLocalFileStorageWithPath(dir), 24*time.Hour, time.Hour, logger)
	j.now = func() time.Time { return now }

	removed, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, p := range []string{expiredPath, strayPath} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), p)
	}
	_, err = os.Stat(freshPath)
	assert.NoError(t, err)

	repo.AssertExpectations(t)
	mappings.AssertExpectations(t)
}

func TestJanitorRunDisabled(t *testing.T) {
	repo := new(MockUploadRepository)
	j := NewJanitor(repo, nil, NewLocalFileStorageWithPath(t.TempDir()), 0, time.Hour, nil)

	assert.NoError(t, j.Run(context.Background()))
	repo.AssertNotCalled(t, "ListOlderThan", mock.Anything, mock.Anything)
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	swept := make(chan struct{}, 1)
	repo := new(MockUploadRepository)
	repo.On("ListOlderThan", mock.Anything, mock.Anything).Return([]*domainUpload.Upload{}, nil).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		})

	j := NewJanitor(repo, nil, NewLocalFileStorageWithPath(t.TempDir()), time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("janitor did not sweep on start")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
