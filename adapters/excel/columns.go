package excel

import (
	"chillerdash/adapters/datareadiness/coercer"
	"chillerdash/domain/upload"
)

// Storage types reported per column
const (
	DataTypeFloat    = "float64"
	DataTypeInt      = "int64"
	DataTypeDateTime = "datetime64"
	DataTypeBool     = "bool"
	DataTypeObject   = "object"
)

// ColumnType is the inferred type of one sheet column
type ColumnType struct {
	Name     string
	Index    int
	DataType string
	Kind     upload.ColumnKind
	Analysis coercer.TypeAnalysis
}

// InferColumnTypes analyzes each column with the coercer and classifies it
func InferColumnTypes(data *SheetData, config ReaderConfig) []ColumnType {
	tc := coercer.NewTypeCoercer(config.CoercionConfig)
	sample := sampleIndices(len(data.Records), config.SampleSize)

	types := make([]ColumnType, len(data.Headers))
	for colIdx, header := range data.Headers {
		values := make([]string, len(sample))
		for i, rowIdx := range sample {
			values[i] = data.Records[rowIdx][colIdx]
		}

		analysis := tc.AnalyzeTypeDistribution(values)
		dataType := dataTypeFor(analysis)
		types[colIdx] = ColumnType{
			Name:     header,
			Index:    colIdx,
			DataType: dataType,
			Kind:     KindFor(dataType),
			Analysis: analysis,
		}
	}
	return types
}

func dataTypeFor(analysis coercer.TypeAnalysis) string {
	switch analysis.RecommendedType {
	case coercer.ValueTypeNumeric:
		if analysis.IntegerCount == analysis.NumericCount {
			return DataTypeInt
		}
		return DataTypeFloat
	case coercer.ValueTypeTimestamp:
		return DataTypeDateTime
	case coercer.ValueTypeBoolean:
		return DataTypeBool
	default:
		return DataTypeObject
	}
}

// KindFor maps a storage type to the coarse kind shown in the column list
func KindFor(dataType string) upload.ColumnKind {
	switch dataType {
	case DataTypeFloat, DataTypeInt:
		return upload.KindNumeric
	case DataTypeObject:
		return upload.KindText
	case DataTypeDateTime:
		return upload.KindDateTime
	default:
		return upload.KindOther
	}
}

// sampleIndices returns evenly spread row indices, or every row when size <= 0 or covers them all
func sampleIndices(total, size int) []int {
	if size <= 0 || size >= total {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, size)
	step := float64(total) / float64(size)
	for i := range indices {
		indices[i] = int(float64(i) * step)
	}
	return indices
}
