package coercer

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueType is the storage type a column of raw strings coerces to
type ValueType string

const (
	ValueTypeString    ValueType = "string"
	ValueTypeNumeric   ValueType = "numeric"
	ValueTypeBoolean   ValueType = "boolean"
	ValueTypeTimestamp ValueType = "timestamp"
	ValueTypeMissing   ValueType = "missing"
)

// TypeCoercer handles deterministic type coercion of spreadsheet cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64 `json:"numeric_threshold"`   // % of values that must parse as numbers
	BooleanThreshold   float64 `json:"boolean_threshold"`   // % of values that must parse as booleans
	TimestampThreshold float64 `json:"timestamp_threshold"` // % of values that must parse as timestamps
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8,
		BooleanThreshold:   0.9,
		TimestampThreshold: 0.8,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int       `json:"total_count"`
	ValidCount      int       `json:"valid_count"`
	NumericCount    int       `json:"numeric_count"`
	IntegerCount    int       `json:"integer_count"`
	BooleanCount    int       `json:"boolean_count"`
	TimestampCount  int       `json:"timestamp_count"`
	NumericRatio    float64   `json:"numeric_ratio"`
	BooleanRatio    float64   `json:"boolean_ratio"`
	TimestampRatio  float64   `json:"timestamp_ratio"`
	RecommendedType ValueType `json:"recommended_type"`
}

// AnalyzeTypeDistribution analyzes a column sample to determine the best type.
// Blank cells count towards TotalCount but not ValidCount.
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{
		TotalCount: len(values),
	}

	for _, val := range values {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		analysis.ValidCount++

		if n, ok := ParseNumeric(val); ok {
			analysis.NumericCount++
			if n == math.Trunc(n) {
				analysis.IntegerCount++
			}
		}
		if _, ok := ParseBoolean(val); ok {
			analysis.BooleanCount++
		}
		if _, ok := ParseTimestamp(val); ok {
			analysis.TimestampCount++
		}
	}

	if analysis.ValidCount == 0 {
		analysis.RecommendedType = ValueTypeMissing
		return analysis
	}

	analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	analysis.BooleanRatio = float64(analysis.BooleanCount) / float64(analysis.ValidCount)
	analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(analysis.ValidCount)
	analysis.RecommendedType = c.determineRecommendedType(analysis)

	return analysis
}

// determineRecommendedType chooses the best type based on analysis
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) ValueType {
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return ValueTypeNumeric
	}

	if analysis.BooleanRatio >= c.config.BooleanThreshold {
		return ValueTypeBoolean
	}

	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return ValueTypeTimestamp
	}

	return ValueTypeString
}

// ParseNumeric attempts to parse as numeric with strict rules.
// Handles parentheses for negatives, currency symbols, percent signs and thousands separators.
func ParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "RM", "USD", "EUR", "GBP", "MYR"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(strings.ReplaceAll(cleanVal, "%", ""))

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")

	switch {
	case hasComma && hasPeriod:
		// European 1.234,56 when the comma comes last, otherwise 1,234.56
		if strings.LastIndex(cleanVal, ",") > strings.LastIndex(cleanVal, ".") {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		}
	case hasComma:
		// 1,234 is a thousands separator, 12,5 is a decimal comma
		idx := strings.LastIndex(cleanVal, ",")
		if len(cleanVal)-idx-1 == 3 {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		}
	}
	cleanVal = strings.ReplaceAll(cleanVal, " ", "")

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// ParseBoolean attempts to parse as boolean
func ParseBoolean(strVal string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(strVal)) {
	case "true", "yes", "y", "on":
		return true, true
	case "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// timestampFormats covers the layouts BMS and data-logger exports commonly use
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04",
	"1/2/06",
	"02/01/2006 15:04",
	"02-01-2006 15:04",
	"02-Jan-2006",
	"02-Jan-2006 15:04",
	"02-Jan-06 15:04",
}

// ParseTimestamp attempts to parse as timestamp with multiple formats
func ParseTimestamp(strVal string) (time.Time, bool) {
	strVal = strings.TrimSpace(strVal)
	if strVal == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
