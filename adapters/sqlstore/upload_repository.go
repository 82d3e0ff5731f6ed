// Package sqlstore implements the upload and mapping repositories on sqlx,
// shared by the PostgreSQL and SQLite backends.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/upload"
	"chillerdash/ports"

	"github.com/jmoiron/sqlx"
)

const uploadColumns = `id, original_filename, COALESCE(stored_path, '') AS stored_path, file_size, mime_type, extension,
	record_count, field_count, numeric_field_count, status, COALESCE(error_message, '') AS error_message,
	metadata, created_at, updated_at`

// uploadRow mirrors the uploads table
type uploadRow struct {
	ID                core.ID       `db:"id"`
	OriginalFilename  string        `db:"original_filename"`
	StoredPath        string        `db:"stored_path"`
	FileSize          int64         `db:"file_size"`
	MimeType          string        `db:"mime_type"`
	Extension         string        `db:"extension"`
	RecordCount       int           `db:"record_count"`
	FieldCount        int           `db:"field_count"`
	NumericFieldCount int           `db:"numeric_field_count"`
	Status            upload.Status `db:"status"`
	ErrorMessage      string        `db:"error_message"`
	Metadata          string        `db:"metadata"` // JSON document, bound as text
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

func newUploadRow(u *upload.Upload) (*uploadRow, error) {
	metadataJSON, err := json.Marshal(u.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return &uploadRow{
		ID:                u.ID,
		OriginalFilename:  u.OriginalFilename,
		StoredPath:        u.StoredPath,
		FileSize:          u.FileSize,
		MimeType:          u.MimeType,
		Extension:         u.Extension,
		RecordCount:       u.RecordCount,
		FieldCount:        u.FieldCount,
		NumericFieldCount: u.NumericFieldCount,
		Status:            u.Status,
		ErrorMessage:      u.ErrorMessage,
		Metadata:          string(metadataJSON),
		CreatedAt:         u.CreatedAt.UTC(),
		UpdatedAt:         u.UpdatedAt.UTC(),
	}, nil
}

func (r *uploadRow) toUpload() (*upload.Upload, error) {
	u := &upload.Upload{
		ID:                r.ID,
		OriginalFilename:  r.OriginalFilename,
		StoredPath:        r.StoredPath,
		FileSize:          r.FileSize,
		MimeType:          r.MimeType,
		Extension:         r.Extension,
		RecordCount:       r.RecordCount,
		FieldCount:        r.FieldCount,
		NumericFieldCount: r.NumericFieldCount,
		Status:            r.Status,
		ErrorMessage:      r.ErrorMessage,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		var m upload.Metadata
		if err := json.Unmarshal([]byte(r.Metadata), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		u.ApplyMetadata(m)
	}
	return u, nil
}

// uploadRepository implements the UploadRepository interface on any sqlx
// driver; queries use ? placeholders and are rebound per driver
type uploadRepository struct {
	db *sqlx.DB
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *sqlx.DB) ports.UploadRepository {
	return &uploadRepository{db: db}
}

// Create inserts a new upload into the database
func (r *uploadRepository) Create(ctx context.Context, u *upload.Upload) error {
	row, err := newUploadRow(u)
	if err != nil {
		return err
	}

	query := `INSERT INTO uploads (
		id, original_filename, stored_path, file_size, mime_type, extension,
		record_count, field_count, numeric_field_count, status, error_message,
		metadata, created_at, updated_at
	) VALUES (
		:id, :original_filename, :stored_path, :file_size, :mime_type, :extension,
		:record_count, :field_count, :numeric_field_count, :status, :error_message,
		:metadata, :created_at, :updated_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// GetByID retrieves an upload by its ID
func (r *uploadRepository) GetByID(ctx context.Context, id core.ID) (*upload.Upload, error) {
	var row uploadRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+uploadColumns+` FROM uploads WHERE id = ?`), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrUploadNotFound, id)
		}
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return row.toUpload()
}

// List retrieves uploads newest first with pagination
func (r *uploadRepository) List(ctx context.Context, limit, offset int) ([]*upload.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.selectUploads(ctx, query, limit, offset)
}

// ListOlderThan retrieves uploads created before cutoff
func (r *uploadRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*upload.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE created_at < ? ORDER BY created_at`
	return r.selectUploads(ctx, query, cutoff.UTC())
}

func (r *uploadRepository) selectUploads(ctx context.Context, query string, args ...interface{}) ([]*upload.Upload, error) {
	var rows []uploadRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}

	uploads := make([]*upload.Upload, 0, len(rows))
	for i := range rows {
		u, err := rows[i].toUpload()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// Update modifies an existing upload
func (r *uploadRepository) Update(ctx context.Context, u *upload.Upload) error {
	row, err := newUploadRow(u)
	if err != nil {
		return err
	}

	query := `UPDATE uploads SET
		stored_path = :stored_path, file_size = :file_size, mime_type = :mime_type,
		record_count = :record_count, field_count = :field_count, numeric_field_count = :numeric_field_count,
		status = :status, error_message = :error_message, metadata = :metadata, updated_at = :updated_at
	WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}
	return requireOneRow(result, u.ID)
}

// Delete removes an upload; its mapping goes with it through ON DELETE CASCADE.
// SQLite only cascades when the foreign_keys pragma is on.
func (r *uploadRepository) Delete(ctx context.Context, id core.ID) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM uploads WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return requireOneRow(result, id)
}

func requireOneRow(result sql.Result, id core.ID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrUploadNotFound, id)
	}
	return nil
}
