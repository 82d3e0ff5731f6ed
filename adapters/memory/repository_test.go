package memory

import (
	"context"
	"testing"
	"time"

	"chillerdash/domain/upload"
	"chillerdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRepositoryContract(t *testing.T) {
	testkit.RunUploadRepositoryContract(t, NewUploadRepository())
}

func TestMappingRepositoryContract(t *testing.T) {
	testkit.RunMappingRepositoryContract(t, NewUploadRepository(), NewMappingRepository())
}

func TestUploadRepositoryCopiesRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewUploadRepository()
	u := testkit.ReadyUpload("plant.csv", time.Now())
	require.NoError(t, repo.Create(ctx, u))

	u.Columns[0].Name = "changed"
	u.PreviewRows[0][0] = "changed"

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Timestamp", got.Columns[0].Name)
	assert.Equal(t, "2024-01-01 00:00", got.PreviewRows[0][0])

	got.Status = upload.StatusFailed
	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, upload.StatusReady, again.Status)

	assert.Error(t, repo.Create(ctx, u), "duplicate IDs are rejected")
}
