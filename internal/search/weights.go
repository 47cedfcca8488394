package search

import (
	"fmt"
	"math"

	"github.com/KonghaYao/text2location/app/config"
)

// FieldWeights per-level boosts. Deeper levels are stronger discriminators,
// hence the exponential default.
type FieldWeights struct {
	Province float64 `json:"province"`
	City     float64 `json:"city"`
	District float64 `json:"district"`
	County   float64 `json:"county"`
}

func DefaultWeights() FieldWeights {
	return FieldWeights{Province: 1, City: 2, District: 4, County: 8}
}

// WeightsFromConfig converts the configured weights.
func WeightsFromConfig(w config.Weights) FieldWeights {
	return FieldWeights{Province: w.Province, City: w.City, District: w.District, County: w.County}
}

// For returns the weight of a level field, 0 for anything else.
func (w FieldWeights) For(f Field) float64 {
	switch f {
	case FieldProvince:
		return w.Province
	case FieldCity:
		return w.City
	case FieldDistrict:
		return w.District
	case FieldCounty:
		return w.County
	}
	return 0
}

// Validate requires finite, non-negative weights with at least one positive.
func (w FieldWeights) Validate() error {
	positive := false
	for _, f := range LevelFields {
		v := w.For(f)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fieldError(ErrInvalidWeights, string(f), fmt.Sprintf("weight %v must be finite and >= 0", v))
		}
		if v > 0 {
			positive = true
		}
	}
	if !positive {
		return newError(ErrInvalidWeights, "at least one weight must be positive")
	}
	return nil
}

// repeats is how often a level is written into the merged field.
func (w FieldWeights) repeats(f Field) int {
	n := int(math.Round(w.For(f)))
	if n < 1 {
		return 1
	}
	return n
}
