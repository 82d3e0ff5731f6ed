package ports

import (
	"context"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/upload"
)

// UploadRepository defines the interface for upload record storage
type UploadRepository interface {
	// Core CRUD operations
	Create(ctx context.Context, u *upload.Upload) error
	GetByID(ctx context.Context, id core.ID) (*upload.Upload, error)
	List(ctx context.Context, limit, offset int) ([]*upload.Upload, error)
	Update(ctx context.Context, u *upload.Upload) error
	Delete(ctx context.Context, id core.ID) error

	// ListOlderThan returns uploads created before cutoff, for the retention sweep
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*upload.Upload, error)
}
