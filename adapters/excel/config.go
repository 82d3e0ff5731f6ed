package excel

import (
	"chillerdash/adapters/datareadiness/coercer"
)

// ReaderConfig holds configuration for reading uploaded sheets
type ReaderConfig struct {
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
	// SampleSize caps how many rows type inference looks at; 0 means all rows
	SampleSize int `json:"sample_size"`
}

// DefaultReaderConfig returns sensible defaults for sheet reading
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
		SampleSize:     5000,
	}
}
