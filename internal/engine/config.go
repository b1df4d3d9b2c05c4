package engine

import (
	"fmt"
)

// FilterConfig holds the absolute thresholds for the hard and soft filters.
// Hard filters eliminate an animal from ranking; soft filters only flag it.
type FilterConfig struct {
	// Hard thresholds
	MinBirthWeight   float64
	MaxFootrotScore  float64
	MaxDagScore      float64
	MinWeaningWeight float64
	MaxMicron        float64
	BSERequired      bool

	// Soft thresholds
	Min200DayWeight float64
	Min300DayWeight float64
	MinWeaningRate  float64
}

// DefaultFilterConfig returns the standard threshold set.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinBirthWeight:   2.0,
		MaxFootrotScore:  4,
		MaxDagScore:      4,
		MinWeaningWeight: 20.0,
		MaxMicron:        25.0,
		BSERequired:      true,
		Min200DayWeight:  40.0,
		Min300DayWeight:  50.0,
		MinWeaningRate:   0.5,
	}
}

func (f FilterConfig) Validate() error {
	if f.MinBirthWeight < 0 || f.MinWeaningWeight < 0 || f.Min200DayWeight < 0 || f.Min300DayWeight < 0 {
		return fmt.Errorf("weight thresholds must be non-negative")
	}
	if f.MaxFootrotScore < 0 || f.MaxDagScore < 0 {
		return fmt.Errorf("health score thresholds must be non-negative")
	}
	if f.MaxMicron <= 0 {
		return fmt.Errorf("max micron must be positive, got %f", f.MaxMicron)
	}
	if f.MinWeaningRate < 0 || f.MinWeaningRate > 1 {
		return fmt.Errorf("min weaning rate must be in [0, 1], got %f", f.MinWeaningRate)
	}
	return nil
}

// Config is the full, validated engine configuration. Invalid fields are
// rejected at construction (engine.New), before any animal is processed.
type Config struct {
	// Contemporary grouping
	WindowDays   int
	MinGroupSize int

	// Scoring
	Weights Weights

	// Filtering
	Filters FilterConfig

	// Cull policy: an animal whose composite score sits below this percentile
	// of its contemporary group is recommended for culling. Relative, so the
	// bar adapts per cohort.
	LowScorePercentile float64
}

// DefaultConfig returns a balanced-preset configuration.
func DefaultConfig() Config {
	w, _ := PresetWeights(PresetBalanced)
	return Config{
		WindowDays:         30,
		MinGroupSize:       2,
		Weights:            w,
		Filters:            DefaultFilterConfig(),
		LowScorePercentile: 0.10,
	}
}

func (c Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("grouping window must be positive, got %d days", c.WindowDays)
	}
	if c.MinGroupSize < 1 {
		return fmt.Errorf("minimum group size must be at least 1, got %d", c.MinGroupSize)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if err := c.Filters.Validate(); err != nil {
		return fmt.Errorf("filters: %w", err)
	}
	if c.LowScorePercentile < 0 || c.LowScorePercentile >= 1 {
		return fmt.Errorf("low score percentile must be in [0, 1), got %f", c.LowScorePercentile)
	}
	return nil
}
