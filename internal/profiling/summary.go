package profiling

import (
	"chillerdash/domain/upload"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes descriptive statistics for a numeric column.
// StdDev is the sample standard deviation and is 0 for a single value.
func Summarize(data []float64) (*upload.NumericSummary, error) {
	if len(data) == 0 {
		return nil, stats.EmptyInputErr
	}

	mean, stdDev := stat.MeanStdDev(data, nil)
	if len(data) < 2 {
		stdDev = 0
	}

	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}

	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}

	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}

	q25, err := percentile(data, 25)
	if err != nil {
		return nil, err
	}

	q75, err := percentile(data, 75)
	if err != nil {
		return nil, err
	}

	return &upload.NumericSummary{
		Count:  len(data),
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Median: median,
		P25:    q25,
		P75:    q75,
	}, nil
}

// percentile falls back to nearest rank when the sample is too small for
// stats.Percentile to interpolate
func percentile(data []float64, p float64) (float64, error) {
	if v, err := stats.Percentile(data, p); err == nil {
		return v, nil
	}
	return stats.PercentileNearestRank(data, p)
}
