package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chillerdash/domain/upload"
	"chillerdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const plantCSV = "Timestamp,Chiller kW,CHW Flow,Notes\n" +
	"2024-01-01 00:00,410.5,1200,ok\n" +
	"2024-01-01 00:15,398.0,1180,\n" +
	"\n" +
	"2024-01-01 00:30,402.25,1195,check\n"

func TestReadCSV(t *testing.T) {
	data, err := NewDataReader("plant.csv").Read(strings.NewReader(plantCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Timestamp", "Chiller kW", "CHW Flow", "Notes"}, data.Headers)
	assert.Equal(t, 3, data.RowCount())
	assert.Equal(t, "utf-8", data.Encoding)
	assert.Empty(t, data.Warnings)
	assert.Equal(t, "", data.Records[1][3])
	assert.Equal(t, "402.25", data.Records[2][1])
	assert.Equal(t, []string{"1200", "1180", "1195"}, data.ColumnValues(2))
	assert.Len(t, data.Head(2), 2)
	assert.Len(t, data.Head(50), 3)
}

func TestReadCSVStripsBOMAndNamesBlankHeaders(t *testing.T) {
	src := "\xEF\xBB\xBFkW,,kW\n1,2,3\n"
	data, err := NewDataReader("x.CSV").Read(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"kW", "Unnamed: 1", "kW.1"}, data.Headers)
}

func TestNormalizeHeadersSkipsTakenSuffixes(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want []string
	}{
		{"suffix already present", []string{"kW", "kW.1", "kW"}, []string{"kW", "kW.1", "kW.2"}},
		{"three repeats", []string{"kW", "kW", "kW"}, []string{"kW", "kW.1", "kW.2"}},
		{"repeated suffixed name", []string{"kW", "kW", "kW.1"}, []string{"kW", "kW.1", "kW.1.1"}},
		{"blank and trimmed", []string{" Flow ", "", "Flow"}, []string{"Flow", "Unnamed: 1", "Flow.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeHeaders(tt.row)
			assert.Equal(t, tt.want, got)

			unique := make(map[string]bool, len(got))
			for _, h := range got {
				assert.False(t, unique[h], "header %q repeated", h)
				unique[h] = true
			}
		})
	}
}

func TestReadCSVKeepsEveryDuplicateColumn(t *testing.T) {
	data, err := NewDataReader("p.csv").Read(strings.NewReader("kW,kW.1,kW\n1,2,3\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"kW", "kW.1", "kW.2"}, data.Headers)
	assert.Equal(t, []string{"1", "2", "3"}, data.Records[0])
}

func TestReadCSVFallsBackToLatin1(t *testing.T) {
	// "Temp °C" encoded as ISO-8859-1
	src := []byte("Temp \xb0C,kW\n6.7,410\n")
	data, err := NewDataReader("latin.csv").Read(bytes.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "latin-1", data.Encoding)
	assert.Equal(t, "Temp °C", data.Headers[0])
	require.Len(t, data.Warnings, 1)
	assert.Contains(t, data.Warnings[0], "latin-1")
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"empty", "", errors.CodeEmptyFile},
		{"whitespace", " \n\n", errors.CodeEmptyFile},
		{"bare quote", "a,b\n1,x\"y\n", errors.CodeParseError},
		{"too many fields", "a,b\n1,2,3\n", errors.CodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataReader("bad.csv").Read(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestReadWorkbookFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Time", "Power", "Status"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"2024-01-01 00:00", 410.5, "on"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"2024-01-01 00:15", 398}))
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	data, err := NewDataReader("plant.xlsx").Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", data.SheetName)
	assert.Equal(t, []string{"Time", "Power", "Status"}, data.Headers)
	require.Equal(t, 2, data.RowCount())
	assert.Equal(t, []string{"2024-01-01 00:15", "398", ""}, data.Records[1])
}

func TestReadLegacyWorkbook(t *testing.T) {
	path := filepath.Join("testdata", "plant.xls")

	data, err := NewDataReader(path).ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Plant", data.SheetName)
	assert.Equal(t, []string{"Timestamp", "Chiller kW", "Status"}, data.Headers)
	require.Equal(t, 2, data.RowCount())
	assert.Equal(t, []string{"2024-01-01 00:00", "410.5", "on"}, data.Records[0])
	assert.Equal(t, []string{"2024-01-01 00:15", "398", ""}, data.Records[1])
}

func TestReadWorkbookRenamedXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Power"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{410.5}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	data, err := NewDataReader("export.xls").Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Power"}, data.Headers)
	assert.Equal(t, "410.5", data.Records[0][0])
}

func TestReadWorkbookRejectsNonWorkbook(t *testing.T) {
	_, err := NewDataReader("legacy.xls").Read(strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
	assert.True(t, strings.HasPrefix(errors.UserMessage(err), "Excel file error: "))

	_, err = NewDataReader("broken.xlsx").Read(strings.NewReader("PK\x03\x04 truncated"))
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))

	_, err = NewDataReader("empty.xls").Read(strings.NewReader(""))
	assert.Equal(t, errors.CodeEmptyFile, errors.GetCode(err))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.csv")
	require.NoError(t, os.WriteFile(path, []byte(plantCSV), 0o644))

	data, err := NewDataReader(path).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, data.RowCount())

	_, err = NewDataReader(path).ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestInferColumnTypes(t *testing.T) {
	data, err := NewDataReader("plant.csv").Read(strings.NewReader(plantCSV))
	require.NoError(t, err)

	types := InferColumnTypes(data, DefaultReaderConfig())
	require.Len(t, types, 4)

	assert.Equal(t, DataTypeDateTime, types[0].DataType)
	assert.Equal(t, upload.KindDateTime, types[0].Kind)
	assert.Equal(t, DataTypeFloat, types[1].DataType)
	assert.Equal(t, upload.KindNumeric, types[1].Kind)
	assert.Equal(t, DataTypeInt, types[2].DataType)
	assert.Equal(t, DataTypeObject, types[3].DataType)
	assert.Equal(t, upload.KindText, types[3].Kind)
	assert.Equal(t, 2, types[3].Analysis.ValidCount)
}

func TestSampleIndices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, sampleIndices(3, 0))
	assert.Equal(t, []int{0, 1, 2}, sampleIndices(3, 10))
	assert.Equal(t, []int{0, 2, 5, 7}, sampleIndices(10, 4))
}
