package ports

import (
	"context"

	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
)

// MappingRepository stores at most one column mapping per upload
type MappingRepository interface {
	// Save inserts the mapping or replaces the existing mapping of the same upload.
	// A replacement keeps the stored ID and CreatedAt, which are copied into m.
	Save(ctx context.Context, m *mapping.ColumnMapping) error
	GetByUpload(ctx context.Context, uploadID core.ID) (*mapping.ColumnMapping, error)
	DeleteByUpload(ctx context.Context, uploadID core.ID) error
}
