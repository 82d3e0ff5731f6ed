package upload

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"chillerdash/domain/core"
)

// Status represents the processing state of an upload
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// ColumnKind is the coarse column classification shown next to each column name.
type ColumnKind string

const (
	KindNumeric  ColumnKind = "Numeric"
	KindText     ColumnKind = "Text"
	KindDateTime ColumnKind = "DateTime"
	KindOther    ColumnKind = "Other"
)

// Supported file extensions, lower-case with leading dot.
const (
	ExtCSV  = ".csv"
	ExtXLS  = ".xls"
	ExtXLSX = ".xlsx"
)

// AllowedExtensions lists the extensions accepted by the upload form and endpoint.
var AllowedExtensions = []string{ExtCSV, ExtXLSX, ExtXLS}

// Upload is a stored chiller plant data file together with what was learned reading it.
type Upload struct {
	ID core.ID `json:"id"`

	// File information
	OriginalFilename string `json:"original_filename"`
	StoredPath       string `json:"stored_path,omitempty"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
	Extension        string `json:"extension"`
	Encoding         string `json:"encoding,omitempty"`
	SheetName        string `json:"sheet_name,omitempty"`

	RecordCount       int `json:"record_count"`
	FieldCount        int `json:"field_count"`
	NumericFieldCount int `json:"numeric_field_count"`

	Status       Status   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Errors       []string `json:"errors,omitempty"` // every validation problem when Status is failed
	Warnings     []string `json:"warnings,omitempty"`

	Columns     []ColumnInfo `json:"columns"`
	PreviewRows [][]string   `json:"preview_rows"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata is the JSON document persisted alongside the scalar upload columns.
type Metadata struct {
	Columns     []ColumnInfo `json:"columns"`
	PreviewRows [][]string   `json:"preview_rows"`
	Errors      []string     `json:"errors,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
	Encoding    string       `json:"encoding,omitempty"`
	SheetName   string       `json:"sheet_name,omitempty"`
}

// ColumnInfo describes a single column of the uploaded sheet
type ColumnInfo struct {
	Name         string          `json:"name"`
	Kind         ColumnKind      `json:"kind"`
	DataType     string          `json:"data_type"` // "float64", "int64", "datetime64", "bool", "object"
	MissingCount int             `json:"missing_count"`
	UniqueCount  int             `json:"unique_count"`
	Summary      *NumericSummary `json:"summary,omitempty"`
}

// NumericSummary holds descriptive statistics for a numeric column.
type NumericSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// ValidationResult mirrors what the upload form reports back to the user.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Request is an uploaded file before processing
type Request struct {
	Filename string
	File     io.Reader
	Size     int64
	MimeType string
}

// New creates an upload record with default values
func New(originalFilename string) *Upload {
	now := time.Now()
	return &Upload{
		ID:               core.NewID(),
		OriginalFilename: originalFilename,
		Extension:        Extension(originalFilename),
		Status:           StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Extension returns the lower-cased extension of a file name.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsAllowedExtension reports whether filename ends in one of AllowedExtensions.
func IsAllowedExtension(filename string) bool {
	ext := Extension(filename)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// MimeTypeFor falls back to a MIME type derived from the extension.
func MimeTypeFor(filename string) string {
	switch Extension(filename) {
	case ExtCSV:
		return "text/csv"
	case ExtXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExtXLS:
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// IsReady returns true if the upload is ready for column mapping
func (u *Upload) IsReady() bool {
	return u.Status == StatusReady
}

// SizeKB returns the file size in kilobytes, as displayed in the file information panel.
func (u *Upload) SizeKB() float64 {
	return float64(u.FileSize) / 1024
}

// ColumnNames returns the column names in file order.
func (u *Upload) ColumnNames() []string {
	names := make([]string, len(u.Columns))
	for i, c := range u.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name.
func (u *Upload) Column(name string) (ColumnInfo, bool) {
	for _, c := range u.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// Metadata collects the JSON-persisted parts of the upload.
func (u *Upload) Metadata() Metadata {
	return Metadata{
		Columns:     u.Columns,
		PreviewRows: u.PreviewRows,
		Errors:      u.Errors,
		Warnings:    u.Warnings,
		Encoding:    u.Encoding,
		SheetName:   u.SheetName,
	}
}

// ApplyMetadata restores the JSON-persisted parts of the upload.
func (u *Upload) ApplyMetadata(m Metadata) {
	u.Columns = m.Columns
	u.PreviewRows = m.PreviewRows
	u.Errors = m.Errors
	u.Warnings = m.Warnings
	u.Encoding = m.Encoding
	u.SheetName = m.SheetName
}
