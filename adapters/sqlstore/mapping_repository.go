package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
	"chillerdash/ports"

	"github.com/jmoiron/sqlx"
)

type mappingRow struct {
	ID        core.ID   `db:"id"`
	UploadID  core.ID   `db:"upload_id"`
	Columns   string    `db:"columns"`
	Tariff    string    `db:"tariff"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// mappingRepository implements the MappingRepository interface
type mappingRepository struct {
	db *sqlx.DB
}

// NewMappingRepository creates a new column mapping repository
func NewMappingRepository(db *sqlx.DB) ports.MappingRepository {
	return &mappingRepository{db: db}
}

// Save inserts the mapping or replaces the one already stored for the upload.
// m.ID and m.CreatedAt are set to the stored values.
func (r *mappingRepository) Save(ctx context.Context, m *mapping.ColumnMapping) error {
	columnsJSON, err := json.Marshal(m.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}

	query := `INSERT INTO column_mappings (id, upload_id, columns, tariff, created_at, updated_at)
	VALUES (:id, :upload_id, :columns, :tariff, :created_at, :updated_at)
	ON CONFLICT (upload_id) DO UPDATE SET
		columns = excluded.columns, tariff = excluded.tariff, updated_at = excluded.updated_at`

	row := mappingRow{
		ID:        m.ID,
		UploadID:  m.UploadID,
		Columns:   string(columnsJSON),
		Tariff:    m.Tariff,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save column mapping: %w", err)
	}

	// A replaced row keeps its original id and created_at
	var kept struct {
		ID        core.ID   `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &kept, r.db.Rebind(`SELECT id, created_at FROM column_mappings WHERE upload_id = ?`), m.UploadID); err != nil {
		return fmt.Errorf("failed to read saved column mapping: %w", err)
	}
	m.ID = kept.ID
	m.CreatedAt = kept.CreatedAt
	return nil
}

// GetByUpload retrieves the mapping of an upload
func (r *mappingRepository) GetByUpload(ctx context.Context, uploadID core.ID) (*mapping.ColumnMapping, error) {
	var row mappingRow
	query := `SELECT id, upload_id, columns, COALESCE(tariff, '') AS tariff, created_at, updated_at
	FROM column_mappings WHERE upload_id = ?`
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), uploadID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: upload %s", core.ErrMappingNotFound, uploadID)
		}
		return nil, fmt.Errorf("failed to get column mapping: %w", err)
	}

	m := &mapping.ColumnMapping{
		ID:        row.ID,
		UploadID:  row.UploadID,
		Columns:   make(map[mapping.Role]string),
		Tariff:    row.Tariff,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Columns) > 0 {
		if err := json.Unmarshal([]byte(row.Columns), &m.Columns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
		}
	}
	return m, nil
}

// DeleteByUpload removes the mapping of an upload, if any
func (r *mappingRepository) DeleteByUpload(ctx context.Context, uploadID core.ID) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM column_mappings WHERE upload_id = ?`), uploadID); err != nil {
		return fmt.Errorf("failed to delete column mapping: %w", err)
	}
	return nil
}
