package upload

import (
	"context"
	"time"

	"chillerdash/internal"
	"chillerdash/ports"
)

// Janitor deletes uploads older than the retention period
type Janitor struct {
	repository  ports.UploadRepository
	mappings    ports.MappingRepository
	fileStorage FileStorage
	retention   time.Duration
	interval    time.Duration
	logger      *internal.Logger
	now         func() time.Time
}

// NewJanitor creates a janitor; mappings may be nil
func NewJanitor(repository ports.UploadRepository, mappings ports.MappingRepository, fileStorage FileStorage, retention, interval time.Duration, logger *internal.Logger) *Janitor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Janitor{
		repository:  repository,
		mappings:    mappings,
		fileStorage: fileStorage,
		retention:   retention,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
// It returns nil on cancellation and does nothing when retention is disabled.
func (j *Janitor) Run(ctx context.Context) error {
	if j.retention <= 0 || j.interval <= 0 {
		j.logger.Debug("[UploadJanitor] Retention disabled")
		return nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Sweep(ctx); err != nil {
			j.logger.Error("[UploadJanitor] Sweep failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep removes expired upload records with their files and mappings, then
// stray files in storage that are older than the cutoff. It returns the number
// of files removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.retention)

	expired, err := j.repository.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, u := range expired {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if j.mappings != nil {
			if err := j.mappings.DeleteByUpload(ctx, u.ID); err != nil {
				j.logger.Warn("[UploadJanitor] Failed to delete mapping of %s: %v", u.ID, err)
			}
		}
		if err := j.repository.Delete(ctx, u.ID); err != nil {
			j.logger.Warn("[UploadJanitor] Failed to delete upload %s: %v", u.ID, err)
			continue
		}
		if u.StoredPath != "" {
			if err := j.fileStorage.Delete(ctx, u.StoredPath); err != nil {
				j.logger.Warn("[UploadJanitor] Failed to delete %s: %v", u.StoredPath, err)
				continue
			}
			removed++
		}
	}

	files, err := j.fileStorage.List(ctx)
	if err != nil {
		return removed, err
	}
	for _, f := range files {
		if !f.ModTime.Before(cutoff) {
			break
		}
		if err := j.fileStorage.Delete(ctx, f.Path); err != nil {
			j.logger.Warn("[UploadJanitor] Failed to delete %s: %v", f.Path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("[UploadJanitor] Removed %d files older than %s", removed, cutoff.Format(time.RFC3339))
	}
	return removed, nil
}
