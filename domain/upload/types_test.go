package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAllowedExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"plant.csv", true},
		{"plant.CSV", true},
		{"plant.xlsx", true},
		{"Plant Log.XLS", true},
		{"plant.txt", false},
		{"plant", false},
		{"plant.csv.exe", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAllowedExtension(tt.filename), tt.filename)
	}
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "text/csv", MimeTypeFor("a.csv"))
	assert.Equal(t, "application/vnd.ms-excel", MimeTypeFor("a.xls"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", MimeTypeFor("a.XLSX"))
	assert.Equal(t, "application/octet-stream", MimeTypeFor("a.bin"))
}

func TestNewUpload(t *testing.T) {
	u := New("Chiller Data.XLSX")
	assert.False(t, u.ID.IsEmpty())
	assert.Equal(t, ".xlsx", u.Extension)
	assert.Equal(t, StatusProcessing, u.Status)
	assert.False(t, u.IsReady())
}

func TestUploadColumns(t *testing.T) {
	u := &Upload{
		FileSize: 2048,
		Columns: []ColumnInfo{
			{Name: "Timestamp", Kind: KindDateTime},
			{Name: "kW", Kind: KindNumeric},
		},
	}

	assert.Equal(t, []string{"Timestamp", "kW"}, u.ColumnNames())
	assert.InDelta(t, 2.0, u.SizeKB(), 1e-9)

	col, ok := u.Column("kW")
	assert.True(t, ok)
	assert.Equal(t, KindNumeric, col.Kind)

	_, ok = u.Column("kw")
	assert.False(t, ok)
}

func TestMetadataRoundTrip(t *testing.T) {
	u := &Upload{
		Columns:     []ColumnInfo{{Name: "a"}},
		PreviewRows: [][]string{{"1"}},
		Warnings:    []string{"w"},
		Encoding:    "latin-1",
		SheetName:   "Sheet1",
	}

	var restored Upload
	restored.ApplyMetadata(u.Metadata())
	assert.Equal(t, u.Columns, restored.Columns)
	assert.Equal(t, u.PreviewRows, restored.PreviewRows)
	assert.Equal(t, u.Warnings, restored.Warnings)
	assert.Equal(t, "latin-1", restored.Encoding)
	assert.Equal(t, "Sheet1", restored.SheetName)
}
