package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"chillerdash/internal"
	"chillerdash/internal/errors"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

const (
	fileTypeCSV  = "csv"
	fileTypeXLSX = "xlsx"

	encodingUTF8   = "utf-8"
	encodingLatin1 = "latin-1"
)

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte("PK\x03\x04")
)

// DataReader handles reading Excel and CSV uploads
type DataReader struct {
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader for the given file name
func NewDataReader(filename string) *DataReader {
	fileType := fileTypeXLSX
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		fileType = fileTypeCSV
	}
	return &DataReader{fileType: fileType, logger: internal.DefaultLogger}
}

// WithLogger replaces the reader's logger
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// ReadFile opens path and reads it
func (r *DataReader) ReadFile(path string) (*SheetData, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), filepath.Base(path)))
		}
		return nil, errors.Wrapf(err, "failed to open %s", filepath.Base(path))
	}
	defer f.Close()

	return r.Read(f)
}

// Read reads a whole upload from src
func (r *DataReader) Read(src io.Reader) (*SheetData, error) {
	start := time.Now()

	var (
		data *SheetData
		err  error
	)
	switch r.fileType {
	case fileTypeCSV:
		data, err = r.readCSV(src)
	default:
		data, err = r.readWorkbook(src)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("[DataReader] %s read in %.2fms (%d columns, %d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(start).Nanoseconds())/1e6,
		len(data.Headers), len(data.Records))
	return data, nil
}

// readCSV decodes as UTF-8, falling back to latin-1 when the bytes are not valid UTF-8
func (r *DataReader) readCSV(src io.Reader) (*SheetData, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV upload")
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.EmptyFile("CSV file is empty")
	}

	data := &SheetData{Encoding: encodingUTF8}
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, errors.ParseError("CSV file has parsing errors", err)
		}
		raw = decoded
		data.Encoding = encodingLatin1
		data.Warnings = append(data.Warnings,
			"File read with latin-1 encoding. Some characters might appear differently.")
		r.logger.Warn("[DataReader] CSV is not valid UTF-8, decoded as latin-1")
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError("CSV file has parsing errors", err)
	}

	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, errors.EmptyFile("CSV file is empty")
	}

	headers := normalizeHeaders(rows[0])
	for i, row := range rows[1:] {
		if len(row) > len(headers) {
			return nil, errors.ParseError("CSV file has parsing errors",
				fmt.Errorf("expected %d fields in line %d, saw %d", len(headers), i+2, len(row)))
		}
	}

	data.Headers = headers
	data.Records = padRecords(rows[1:], len(headers))
	return data, nil
}

// readWorkbook reads the first worksheet of an Excel workbook. OOXML (zip)
// content goes through excelize whatever the extension; anything else is
// treated as a legacy BIFF .xls file.
func (r *DataReader) readWorkbook(src io.Reader) (*SheetData, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Excel upload")
	}
	if len(raw) == 0 {
		return nil, errors.EmptyFile("Excel file is empty")
	}

	var (
		sheet string
		rows  [][]string
	)
	if bytes.HasPrefix(raw, zipMagic) {
		sheet, rows, err = readOOXMLRows(raw)
	} else {
		sheet, rows, err = readBIFFRows(raw)
		if err == nil {
			r.logger.Debug("[DataReader] Read legacy BIFF workbook, sheet %q", sheet)
		}
	}
	if err != nil {
		return nil, err
	}

	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, errors.EmptyFile(fmt.Sprintf("Worksheet %q is empty", sheet))
	}

	// Rows may be wider than the header when trailing header cells are blank
	width := len(rows[0])
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	copy(header, rows[0])

	return &SheetData{
		Headers:   normalizeHeaders(header),
		Records:   padRecords(rows[1:], width),
		SheetName: sheet,
	}, nil
}

func readOOXMLRows(raw []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, excelError(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.EmptyFile("Excel file has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, excelError(err)
	}
	return sheets[0], rows, nil
}

// readBIFFRows reads the first sheet of an Excel 97-2003 workbook. The xls
// package panics on some malformed streams, so panics become parse errors.
func readBIFFRows(raw []byte) (sheet string, rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			sheet, rows, err = "", nil, excelError(fmt.Errorf("corrupt workbook: %v", p))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return "", nil, excelError(err)
	}
	if wb == nil {
		return "", nil, excelError(fmt.Errorf("no Workbook stream found"))
	}
	if wb.NumSheets() == 0 {
		return "", nil, errors.EmptyFile("Excel file has no worksheets")
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return "", nil, errors.EmptyFile("Excel file has no worksheets")
	}

	rows = make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return ws.Name, rows, nil
}

func excelError(err error) error {
	return errors.ParseError(fmt.Sprintf("Excel file error: %v", err), err)
}

// normalizeHeaders trims header cells, names blank ones "Unnamed: <i>" and
// suffixes repeated names with ".1", ".2", ... skipping any suffix that is
// already taken by another header
func normalizeHeaders(row []string) []string {
	headers := make([]string, len(row))
	taken := make(map[string]bool, len(row))
	suffix := make(map[string]int, len(row))
	for i, cell := range row {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if taken[name] {
			base, n := name, suffix[name]
			for taken[name] {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
			}
			suffix[base] = n
		}
		taken[name] = true
		headers[i] = name
	}
	return headers
}

// padRecords trims every cell and pads short rows with empty cells
func padRecords(rows [][]string, width int) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, width)
		for j := 0; j < width && j < len(row); j++ {
			rec[j] = strings.TrimSpace(row[j])
		}
		records[i] = rec
	}
	return records
}

// dropBlankRows skips rows without cells before the header, and data rows whose
// cells are all blank. A header row of blank cells is kept so its columns get names.
func dropBlankRows(rows [][]string) [][]string {
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return rows
	}

	kept := rows[:1]
	for _, row := range rows[1:] {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}
