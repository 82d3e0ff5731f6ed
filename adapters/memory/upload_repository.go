// Package memory keeps uploads and column mappings in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/upload"
	"chillerdash/ports"
)

// UploadRepository is a mutex-guarded map of uploads. Records are copied on
// the way in and out so callers never share state with the store.
type UploadRepository struct {
	mu      sync.RWMutex
	uploads map[core.ID]*upload.Upload
}

var _ ports.UploadRepository = (*UploadRepository)(nil)

// NewUploadRepository creates an empty repository
func NewUploadRepository() *UploadRepository {
	return &UploadRepository{uploads: make(map[core.ID]*upload.Upload)}
}

func cloneUpload(u *upload.Upload) *upload.Upload {
	c := *u
	c.Errors = append([]string(nil), u.Errors...)
	c.Warnings = append([]string(nil), u.Warnings...)
	c.Columns = append([]upload.ColumnInfo(nil), u.Columns...)
	if u.PreviewRows != nil {
		c.PreviewRows = make([][]string, len(u.PreviewRows))
		for i, row := range u.PreviewRows {
			c.PreviewRows[i] = append([]string(nil), row...)
		}
	}
	return &c
}

func (r *UploadRepository) Create(ctx context.Context, u *upload.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.uploads[u.ID]; exists {
		return fmt.Errorf("upload %s already exists", u.ID)
	}
	r.uploads[u.ID] = cloneUpload(u)
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id core.ID) (*upload.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.uploads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUploadNotFound, id)
	}
	return cloneUpload(u), nil
}

// List returns uploads newest first
func (r *UploadRepository) List(ctx context.Context, limit, offset int) ([]*upload.Upload, error) {
	all := r.sorted(func(*upload.Upload) bool { return true })
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*upload.Upload{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListOlderThan returns uploads created before cutoff, oldest first
func (r *UploadRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*upload.Upload, error) {
	return r.sorted(func(u *upload.Upload) bool { return u.CreatedAt.Before(cutoff) }), nil
}

// sorted returns copies of the matching uploads ordered by creation time
func (r *UploadRepository) sorted(keep func(*upload.Upload) bool) []*upload.Upload {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*upload.Upload, 0, len(r.uploads))
	for _, u := range r.uploads {
		if keep(u) {
			out = append(out, cloneUpload(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *UploadRepository) Update(ctx context.Context, u *upload.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[u.ID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrUploadNotFound, u.ID)
	}
	r.uploads[u.ID] = cloneUpload(u)
	return nil
}

func (r *UploadRepository) Delete(ctx context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrUploadNotFound, id)
	}
	delete(r.uploads, id)
	return nil
}
