// Package upload stores, reads and validates chiller plant data files.
//
// Process runs synchronously: the caller gets the finished record, with its
// column list and preview, or the validation errors that rejected it. At most
// MaxConcurrent uploads are read at the same time; further callers wait on a
// weighted semaphore until a slot frees up or their context is cancelled.
package upload

import (
	"context"
	"strings"
	"time"

	"chillerdash/adapters/excel"
	"chillerdash/domain/core"
	"chillerdash/domain/upload"
	"chillerdash/internal"
	"chillerdash/internal/errors"
	"chillerdash/internal/profiling"
	"chillerdash/ports"

	"golang.org/x/sync/semaphore"
)

const unnamedColumnsWarning = "All columns appear to be unnamed. Please ensure your file has proper column headers; the first row should contain column names."

// ProcessorConfig holds upload processing limits
type ProcessorConfig struct {
	MaxFileSize   int64
	PreviewRows   int
	MaxConcurrent int64
	Reader        excel.ReaderConfig
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MaxFileSize:   50 * 1024 * 1024, // 50MB
		PreviewRows:   20,
		MaxConcurrent: 4,
		Reader:        excel.DefaultReaderConfig(),
	}
}

// Processor handles upload validation, storage and profiling
type Processor struct {
	repository  ports.UploadRepository
	fileStorage FileStorage
	profiler    *profiling.Profiler
	config      ProcessorConfig
	sem         *semaphore.Weighted
	metrics     *Metrics
	logger      *internal.Logger
}

// NewProcessor creates a new upload processor. metrics may be nil.
func NewProcessor(repository ports.UploadRepository, fileStorage FileStorage, config ProcessorConfig, metrics *Metrics, logger *internal.Logger) *Processor {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	if config.PreviewRows <= 0 {
		config.PreviewRows = DefaultProcessorConfig().PreviewRows
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Processor{
		repository:  repository,
		fileStorage: fileStorage,
		profiler:    profiling.NewProfiler(config.Reader),
		config:      config,
		sem:         semaphore.NewWeighted(config.MaxConcurrent),
		metrics:     metrics,
		logger:      logger,
	}
}

// Process validates, stores and reads an uploaded file.
//
// Files rejected before storage (extension, size, empty body) return a nil record.
// Files that were stored but failed to read or validate are persisted with
// status failed and returned together with the error.
func (p *Processor) Process(ctx context.Context, req *upload.Request) (*upload.Upload, error) {
	start := time.Now()
	ext := upload.Extension(req.Filename)
	p.logger.Info("[UploadProcessor] Processing %s (%d bytes)", req.Filename, req.Size)

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "upload cancelled while waiting for a processing slot")
	}
	defer p.sem.Release(1)

	if err := p.checkRequest(req); err != nil {
		p.logger.Warn("[UploadProcessor] Rejected %s: %v", req.Filename, err)
		p.metrics.observe(OutcomeRejected, metricExtension(ext), 0, time.Since(start).Seconds())
		return nil, err
	}

	u := upload.New(req.Filename)
	u.MimeType = req.MimeType
	if u.MimeType == "" || u.MimeType == "application/octet-stream" {
		u.MimeType = upload.MimeTypeFor(req.Filename)
	}

	storedPath, written, err := p.fileStorage.Store(ctx, req.File, req.Filename)
	if err != nil {
		p.metrics.observe(OutcomeRejected, metricExtension(ext), 0, time.Since(start).Seconds())
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to store upload")
	}
	u.StoredPath = storedPath
	u.FileSize = written

	if err := p.repository.Create(ctx, u); err != nil {
		p.fileStorage.Delete(ctx, storedPath)
		return nil, errors.DatabaseError("failed to create upload record", err)
	}

	if err := p.readAndProfile(ctx, u); err != nil {
		p.markFailed(ctx, u, err)
		p.metrics.observe(OutcomeFailed, metricExtension(ext), u.FileSize, time.Since(start).Seconds())
		return u, err
	}

	u.Status = upload.StatusReady
	u.UpdatedAt = time.Now()
	if err := p.repository.Update(ctx, u); err != nil {
		return nil, errors.DatabaseError("failed to save upload record", err)
	}

	p.metrics.observe(OutcomeReady, metricExtension(ext), u.FileSize, time.Since(start).Seconds())
	p.logger.Info("[UploadProcessor] Upload %s ready: %d rows, %d columns (%d numeric) in %v",
		u.ID, u.RecordCount, u.FieldCount, u.NumericFieldCount, time.Since(start).Round(time.Millisecond))
	return u, nil
}

// checkRequest applies the checks that need no file contents
func (p *Processor) checkRequest(req *upload.Request) error {
	if req == nil || req.File == nil || strings.TrimSpace(req.Filename) == "" {
		return errors.InvalidInput("No file uploaded")
	}
	if !upload.IsAllowedExtension(req.Filename) {
		ext := upload.Extension(req.Filename)
		if ext == "" {
			ext = "(none)"
		}
		return errors.UnsupportedFormat(ext)
	}
	if p.config.MaxFileSize > 0 && req.Size > p.config.MaxFileSize {
		return errors.FileTooLarge(req.Size, p.config.MaxFileSize)
	}
	if req.Size == 0 {
		return errors.EmptyFile("The uploaded file is empty")
	}
	return nil
}

// readAndProfile reads the stored file and fills in columns, preview and counts
func (p *Processor) readAndProfile(ctx context.Context, u *upload.Upload) error {
	rc, err := p.fileStorage.GetReader(ctx, u.StoredPath)
	if err != nil {
		return errors.Wrap(err, "failed to open stored upload")
	}
	defer rc.Close()

	data, err := excel.NewDataReader(u.OriginalFilename).WithLogger(p.logger).Read(rc)
	if err != nil {
		return err
	}

	columns := p.profiler.ProfileColumns(data)
	summary := profiling.SummarizeDataset(data.RowCount(), columns)

	u.Encoding = data.Encoding
	u.SheetName = data.SheetName
	u.Columns = columns
	u.RecordCount = summary.Rows
	u.FieldCount = summary.Columns
	u.NumericFieldCount = summary.NumericColumns
	u.PreviewRows = data.Head(p.config.PreviewRows)
	u.Warnings = append(u.Warnings, data.Warnings...)
	if allUnnamed(data.Headers) {
		u.Warnings = append(u.Warnings, unnamedColumnsWarning)
	}

	result, err := Validate(summary)
	if !result.Valid {
		u.Errors = result.Errors
		return err
	}
	return nil
}

// Validate applies the structural checks every upload must pass and reports all failures.
// The returned error carries the code of the first failure.
func Validate(summary profiling.DatasetSummary) (upload.ValidationResult, error) {
	result := upload.ValidationResult{Valid: true, Errors: []string{}}
	var first error

	fail := func(err *errors.AppError) {
		result.Valid = false
		result.Errors = append(result.Errors, err.Message)
		if first == nil {
			first = err
		}
	}

	if summary.Rows == 0 {
		fail(errors.EmptyFile("File is empty"))
	}
	if summary.Columns == 0 {
		fail(errors.ValidationError("File has no columns"))
	}
	if summary.NumericColumns < 1 {
		fail(errors.NoNumericColumns())
	}
	return result, first
}

// markFailed persists the failure so it shows up in the upload history
func (p *Processor) markFailed(ctx context.Context, u *upload.Upload, cause error) {
	if len(u.Errors) == 0 {
		u.Errors = []string{errors.UserMessage(cause)}
	}
	u.Status = upload.StatusFailed
	u.ErrorMessage = strings.Join(u.Errors, "; ")
	u.UpdatedAt = time.Now()

	p.logger.Warn("[UploadProcessor] Upload %s failed: %v", u.ID, cause)
	if err := p.repository.Update(ctx, u); err != nil {
		p.logger.Error("[UploadProcessor] Failed to record failure of %s: %v", u.ID, err)
	}
}

// Delete removes an upload record and its stored file
func (p *Processor) Delete(ctx context.Context, id core.ID) error {
	u, err := p.repository.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.repository.Delete(ctx, id); err != nil {
		return err
	}
	if u.StoredPath != "" {
		if err := p.fileStorage.Delete(ctx, u.StoredPath); err != nil {
			p.logger.Warn("[UploadProcessor] Record %s deleted but file remains: %v", id, err)
		}
	}
	return nil
}

// allUnnamed reports whether every header was blank in the file
func allUnnamed(headers []string) bool {
	if len(headers) == 0 {
		return false
	}
	for _, h := range headers {
		if !strings.HasPrefix(h, "Unnamed") {
			return false
		}
	}
	return true
}

func metricExtension(ext string) string {
	for _, allowed := range upload.AllowedExtensions {
		if ext == allowed {
			return strings.TrimPrefix(ext, ".")
		}
	}
	return "other"
}
