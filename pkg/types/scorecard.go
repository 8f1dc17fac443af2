package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FeatureWeight holds the scoring parameters for one configured feature.
// A nil Cap means the capped value is unbounded.
type FeatureWeight struct {
	Weight     float64  `json:"weight"`
	Multiplier float64  `json:"multiplier"`
	Cap        *float64 `json:"cap,omitempty"`
}

// WeightMap maps feature names to their scoring parameters. It is persisted
// as a jsonb column on scorecard versions.
type WeightMap map[string]FeatureWeight

// Value marshals the map for storage.
func (w WeightMap) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("weight map: %w", err)
	}
	return string(b), nil
}

// Scan decodes the stored jsonb payload.
func (w *WeightMap) Scan(value interface{}) error {
	if value == nil {
		*w = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("weight map: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, w)
}

// BandThresholds maps band names to the minimum score that earns the band.
// Bands are checked highest threshold first; scores below every threshold
// fall into the lowest band.
type BandThresholds map[string]int

// Value marshals the thresholds for storage.
func (b BandThresholds) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("band thresholds: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored jsonb payload.
func (b *BandThresholds) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("band thresholds: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, b)
}
