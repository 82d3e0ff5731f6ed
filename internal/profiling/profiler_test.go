package profiling

import (
	"math"
	"strings"
	"testing"

	"chillerdash/adapters/excel"
	"chillerdash/domain/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{8, 1, 7, 2, 6, 3, 5, 4})
	require.NoError(t, err)

	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 4.5, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(6), s.StdDev, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 8.0, s.Max)
	assert.InDelta(t, 4.5, s.Median, 1e-9)
	assert.Equal(t, 2.0, s.P25)
	assert.Equal(t, 6.0, s.P75)
}

func TestSummarizeSmallSamples(t *testing.T) {
	s, err := Summarize([]float64{410})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 410.0, s.P25)
	assert.Equal(t, 410.0, s.P75)

	s, err = Summarize([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.P25)
	assert.Equal(t, 2.5, s.P75)

	_, err = Summarize(nil)
	assert.Error(t, err)
}

func TestProfileColumns(t *testing.T) {
	src := "Timestamp,kW,Chiller,Flow\n" +
		"2024-01-01 00:00,410,CH-1,1200\n" +
		"2024-01-01 00:15,,CH-1,1180\n" +
		"2024-01-01 00:30,402,CH-2,1195\n" +
		"2024-01-01 00:45,398,CH-2,1190\n" +
		"2024-01-01 01:00,405,CH-1,--\n"
	data, err := excel.NewDataReader("plant.csv").Read(strings.NewReader(src))
	require.NoError(t, err)

	cols := NewProfiler(excel.DefaultReaderConfig()).ProfileColumns(data)
	require.Len(t, cols, 4)

	assert.Equal(t, upload.KindDateTime, cols[0].Kind)
	assert.Nil(t, cols[0].Summary)
	assert.Equal(t, 5, cols[0].UniqueCount)

	assert.Equal(t, upload.KindNumeric, cols[1].Kind)
	assert.Equal(t, 1, cols[1].MissingCount)
	require.NotNil(t, cols[1].Summary)
	assert.Equal(t, 4, cols[1].Summary.Count)
	assert.Equal(t, 398.0, cols[1].Summary.Min)

	assert.Equal(t, upload.KindText, cols[2].Kind)
	assert.Equal(t, 2, cols[2].UniqueCount)

	// "--" fails to parse but 4 of 5 cells are numeric
	assert.Equal(t, upload.KindNumeric, cols[3].Kind)
	assert.Equal(t, 1, cols[3].MissingCount)
	assert.Equal(t, 4, cols[3].Summary.Count)

	summary := SummarizeDataset(data.RowCount(), cols)
	assert.Equal(t, DatasetSummary{Rows: 5, Columns: 4, NumericColumns: 2}, summary)
}
