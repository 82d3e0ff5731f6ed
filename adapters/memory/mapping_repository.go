package memory

import (
	"context"
	"fmt"
	"sync"

	"chillerdash/domain/core"
	"chillerdash/domain/mapping"
	"chillerdash/ports"
)

// MappingRepository keeps one column mapping per upload
type MappingRepository struct {
	mu       sync.RWMutex
	mappings map[core.ID]*mapping.ColumnMapping
}

var _ ports.MappingRepository = (*MappingRepository)(nil)

// NewMappingRepository creates an empty repository
func NewMappingRepository() *MappingRepository {
	return &MappingRepository{mappings: make(map[core.ID]*mapping.ColumnMapping)}
}

func cloneMapping(m *mapping.ColumnMapping) *mapping.ColumnMapping {
	c := *m
	c.Columns = make(map[mapping.Role]string, len(m.Columns))
	for role, col := range m.Columns {
		c.Columns[role] = col
	}
	return &c
}

// Save replaces any mapping already stored for the upload, keeping its ID and
// CreatedAt; both are written back into m
func (r *MappingRepository) Save(ctx context.Context, m *mapping.ColumnMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.mappings[m.UploadID]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	}
	r.mappings[m.UploadID] = cloneMapping(m)
	return nil
}

func (r *MappingRepository) GetByUpload(ctx context.Context, uploadID core.ID) (*mapping.ColumnMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.mappings[uploadID]
	if !ok {
		return nil, fmt.Errorf("%w: upload %s", core.ErrMappingNotFound, uploadID)
	}
	return cloneMapping(m), nil
}

func (r *MappingRepository) DeleteByUpload(ctx context.Context, uploadID core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mappings, uploadID)
	return nil
}
