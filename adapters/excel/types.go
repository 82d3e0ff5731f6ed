package excel

// SheetData represents a fully read upload: the header row and the data rows under it
type SheetData struct {
	Headers   []string   // Column headers, trimmed and de-duplicated
	Records   [][]string // Data rows, each padded to len(Headers)
	Encoding  string     // "utf-8" or "latin-1" for CSV, empty for workbooks
	SheetName string     // Worksheet the rows came from, empty for CSV
	Warnings  []string
}

// RowCount returns the number of data rows
func (d *SheetData) RowCount() int {
	return len(d.Records)
}

// ColumnValues returns every cell of the column at idx, in row order
func (d *SheetData) ColumnValues(idx int) []string {
	values := make([]string, len(d.Records))
	for i, rec := range d.Records {
		values[i] = rec[idx]
	}
	return values
}

// Head returns at most n data rows
func (d *SheetData) Head(n int) [][]string {
	if n > len(d.Records) {
		n = len(d.Records)
	}
	head := make([][]string, n)
	copy(head, d.Records[:n])
	return head
}
