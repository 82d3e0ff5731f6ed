// Package testkit holds fixtures shared by repository and handler tests:
// repository contract suites and a seeded chiller plant log generator.
package testkit

import (
	"context"
	"testing"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
	"chillerdash/domain/upload"
	"chillerdash/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ReadyUpload builds a processed upload with three columns, created at createdAt
func ReadyUpload(name string, createdAt time.Time) *upload.Upload {
	u := upload.New(name)
	u.StoredPath = "/data/uploads/" + name
	u.FileSize = 2048
	u.MimeType = upload.MimeTypeFor(name)
	u.Status = upload.StatusReady
	u.RecordCount = 2
	u.FieldCount = 3
	u.NumericFieldCount = 2
	u.Encoding = "utf-8"
	u.Warnings = []string{"File read with latin-1 encoding. Some characters might appear differently."}
	u.Columns = []upload.ColumnInfo{
		{Name: "Timestamp", Kind: upload.KindDateTime, DataType: "datetime64", UniqueCount: 2},
		{Name: "kW", Kind: upload.KindNumeric, DataType: "float64", UniqueCount: 2,
			Summary: &upload.NumericSummary{Count: 2, Mean: 415, StdDev: 21.213203435596427, Min: 400, Max: 430, Median: 415, P25: 407.5, P75: 422.5}},
		{Name: "RT", Kind: upload.KindNumeric, DataType: "int64", UniqueCount: 2},
	}
	u.PreviewRows = [][]string{
		{"2024-01-01 00:00", "400", "1200"},
		{"2024-01-01 00:15", "430", "1250"},
	}
	u.CreatedAt = createdAt
	u.UpdatedAt = createdAt
	return u
}

// RunUploadRepositoryContract checks the behaviour every UploadRepository shares
func RunUploadRepositoryContract(t *testing.T, repo ports.UploadRepository) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	first := ReadyUpload("january.csv", base)
	second := ReadyUpload("february.xlsx", base.Add(time.Hour))
	third := ReadyUpload("march.csv", base.Add(2*time.Hour))
	for _, u := range []*upload.Upload{first, second, third} {
		require.NoError(t, repo.Create(ctx, u))
	}

	t.Run("get round trips metadata", func(t *testing.T) {
		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.OriginalFilename, got.OriginalFilename)
		assert.Equal(t, first.StoredPath, got.StoredPath)
		assert.Equal(t, first.FileSize, got.FileSize)
		assert.Equal(t, ".csv", got.Extension)
		assert.Equal(t, upload.StatusReady, got.Status)
		assert.Equal(t, first.Columns, got.Columns)
		assert.Equal(t, first.PreviewRows, got.PreviewRows)
		assert.Equal(t, first.Warnings, got.Warnings)
		assert.Equal(t, "utf-8", got.Encoding)
		assert.True(t, got.CreatedAt.Equal(base), got.CreatedAt)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, core.NewID())
		assert.ErrorIs(t, err, core.ErrUploadNotFound)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, third.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)
		assert.Equal(t, first.ID, all[2].ID)

		page, err := repo.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, second.ID, page[0].ID)

		past, err := repo.List(ctx, 10, 5)
		require.NoError(t, err)
		assert.Empty(t, past)
	})

	t.Run("list older than", func(t *testing.T) {
		old, err := repo.ListOlderThan(ctx, base.Add(90*time.Minute))
		require.NoError(t, err)
		require.Len(t, old, 2)
		assert.Equal(t, first.ID, old[0].ID)
		assert.Equal(t, second.ID, old[1].ID)
	})

	t.Run("update", func(t *testing.T) {
		u, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		u.Status = upload.StatusFailed
		u.Errors = []string{"File is empty", "File has no columns"}
		u.ErrorMessage = "File is empty; File has no columns"
		u.UpdatedAt = base.Add(3 * time.Hour)
		require.NoError(t, repo.Update(ctx, u))

		got, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, upload.StatusFailed, got.Status)
		assert.Equal(t, u.Errors, got.Errors)
		assert.Equal(t, u.ErrorMessage, got.ErrorMessage)

		missing := ReadyUpload("ghost.csv", base)
		assert.ErrorIs(t, repo.Update(ctx, missing), core.ErrUploadNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, first.ID))
		_, err := repo.GetByID(ctx, first.ID)
		assert.ErrorIs(t, err, core.ErrUploadNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, first.ID), core.ErrUploadNotFound)
	})
}

// RunMappingRepositoryContract checks the behaviour every MappingRepository shares
func RunMappingRepositoryContract(t *testing.T, uploads ports.UploadRepository, mappings ports.MappingRepository) {
	ctx := context.Background()
	u := ReadyUpload("plant.csv", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, uploads.Create(ctx, u))

	_, err := mappings.GetByUpload(ctx, u.ID)
	assert.ErrorIs(t, err, core.ErrMappingNotFound)

	m := mapping.New(u.ID)
	m.Set(mapping.RoleTime, "Timestamp")
	m.Set(mapping.RolePower, "kW")
	m.Tariff = "Medium Voltage General"
	require.NoError(t, mappings.Save(ctx, m))

	got, err := mappings.GetByUpload(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "Timestamp", got.Column(mapping.RoleTime))
	assert.Equal(t, "kW", got.Column(mapping.RolePower))
	assert.Equal(t, "Medium Voltage General", got.Tariff)

	replacement := mapping.New(u.ID)
	replacement.Set(mapping.RoleTime, "Timestamp")
	replacement.Set(mapping.RolePower, "RT")
	require.NoError(t, mappings.Save(ctx, replacement))
	assert.Equal(t, m.ID, replacement.ID, "second save reports the stored id")
	assert.WithinDuration(t, m.CreatedAt, replacement.CreatedAt, time.Second)

	got, err = mappings.GetByUpload(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID, "saving again replaces the mapping in place")
	assert.Equal(t, "RT", got.Column(mapping.RolePower))
	assert.Empty(t, got.Tariff)

	require.NoError(t, mappings.DeleteByUpload(ctx, u.ID))
	_, err = mappings.GetByUpload(ctx, u.ID)
	assert.ErrorIs(t, err, core.ErrMappingNotFound)
	assert.NoError(t, mappings.DeleteByUpload(ctx, u.ID))
}
