package profiling

import (
	"chillerdash/adapters/datareadiness/coercer"
	"chillerdash/adapters/excel"
	"chillerdash/domain/upload"
)

// Profiler turns a read sheet into the per-column information shown after an upload
type Profiler struct {
	config excel.ReaderConfig
}

// NewProfiler creates a profiler with the given reader configuration
func NewProfiler(config excel.ReaderConfig) *Profiler {
	return &Profiler{config: config}
}

// ProfileColumns infers each column's type and collects missing, unique and numeric statistics.
// Cells of a numeric column that do not parse as numbers count as missing.
func (p *Profiler) ProfileColumns(data *excel.SheetData) []upload.ColumnInfo {
	types := excel.InferColumnTypes(data, p.config)
	columns := make([]upload.ColumnInfo, len(types))

	for i, ct := range types {
		raw := data.ColumnValues(ct.Index)
		info := upload.ColumnInfo{
			Name:     ct.Name,
			Kind:     ct.Kind,
			DataType: ct.DataType,
		}

		unique := make(map[string]struct{}, len(raw))
		var numbers []float64
		for _, cell := range raw {
			if cell == "" {
				info.MissingCount++
				continue
			}
			unique[cell] = struct{}{}
			if ct.Kind != upload.KindNumeric {
				continue
			}
			if v, ok := coercer.ParseNumeric(cell); ok {
				numbers = append(numbers, v)
			} else {
				info.MissingCount++
			}
		}
		info.UniqueCount = len(unique)

		if ct.Kind == upload.KindNumeric {
			if summary, err := Summarize(numbers); err == nil {
				info.Summary = summary
			}
		}
		columns[i] = info
	}
	return columns
}

// DatasetSummary holds the three headline figures of an upload
type DatasetSummary struct {
	Rows           int `json:"rows"`
	Columns        int `json:"columns"`
	NumericColumns int `json:"numeric_columns"`
}

// SummarizeDataset counts rows, columns and numeric columns
func SummarizeDataset(rows int, columns []upload.ColumnInfo) DatasetSummary {
	summary := DatasetSummary{Rows: rows, Columns: len(columns)}
	for _, c := range columns {
		if c.Kind == upload.KindNumeric {
			summary.NumericColumns++
		}
	}
	return summary
}
