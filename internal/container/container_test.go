package container

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	domainUpload "chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/config"
	"chillerdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			URL:    "file:" + filepath.Join(dir, "dashboard.db"),
		},
		Upload: config.UploadConfig{
			Dir:             filepath.Join(dir, "uploads"),
			MaxBytes:        1 << 20,
			PreviewRows:     5,
			MaxConcurrent:   2,
			CleanupInterval: time.Hour,
		},
		Logging: config.LoggingConfig{Level: "ERROR"},
	}
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerWithWriter(internal.LogLevelError, &bytes.Buffer{})
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestOpenDatabaseWiresUploadPipeline(t *testing.T) {
	c, err := New(testConfig(t), quietLogger())
	require.NoError(t, err)
	require.NoError(t, c.OpenDatabase(context.Background()))
	defer c.Close()

	require.NotNil(t, c.Dashboard)
	require.NotNil(t, c.Janitor)
	assert.NotEmpty(t, c.Catalog.CategoryNames())

	var buf bytes.Buffer
	cfg := testkit.DefaultPlantConfig()
	cfg.Rows = 10
	require.NoError(t, testkit.NewPlantDataGenerator(cfg).WriteCSV(&buf))

	u, err := c.Processor.Process(context.Background(), &domainUpload.Request{
		Filename: "plant.csv",
		File:     bytes.NewReader(buf.Bytes()),
		Size:     int64(buf.Len()),
	})
	require.NoError(t, err)
	assert.Equal(t, domainUpload.StatusReady, u.Status)

	stored, err := c.UploadRepo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.RecordCount)
	assert.Len(t, stored.PreviewRows, 5)

	families, err := c.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "chillerdash_uploads_total")
}

func TestInitInMemory(t *testing.T) {
	c, err := New(testConfig(t), quietLogger())
	require.NoError(t, err)
	require.NoError(t, c.InitInMemory())

	assert.Nil(t, c.DB)
	assert.NotNil(t, c.Dashboard)
	assert.NoError(t, c.Close())
}

func TestOpenDatabaseRejectsUnreachablePostgres(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = config.DriverPostgres
	cfg.Database.URL = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

	c, err := New(cfg, quietLogger())
	require.NoError(t, err)
	assert.Error(t, c.OpenDatabase(context.Background()))
}
