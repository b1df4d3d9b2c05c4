package engine

import (
	"fmt"
)

// Weights defines the relative importance of each scoring category.
// Weights need not sum to 1.0: the composite scorer renormalizes over the
// categories that actually have a score, so only ratios matter.
type Weights struct {
	Growth       float64
	Wool         float64
	Reproduction float64
	Health       float64
	Temperament  float64
}

// Of returns the weight for a category.
func (w Weights) Of(c Category) float64 {
	switch c {
	case CategoryGrowth:
		return w.Growth
	case CategoryWool:
		return w.Wool
	case CategoryReproduction:
		return w.Reproduction
	case CategoryHealth:
		return w.Health
	case CategoryTemperament:
		return w.Temperament
	}
	return 0
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Growth + w.Wool + w.Reproduction + w.Health + w.Temperament
}

// Validate checks that no weight is negative and at least one is positive.
func (w Weights) Validate() error {
	for _, c := range Categories {
		if w.Of(c) < 0 {
			return fmt.Errorf("negative weight for category %s: %f", c, w.Of(c))
		}
	}
	if w.Sum() == 0 {
		return fmt.Errorf("all category weights are zero")
	}
	return nil
}

// Map returns the weights keyed by category name, for persistence and display.
func (w Weights) Map() map[string]float64 {
	m := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		m[string(c)] = w.Of(c)
	}
	return m
}

// WeightsFromMap builds Weights from a category-name keyed map.
// Unknown category names are a configuration error.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	var w Weights
	for name, v := range m {
		switch Category(name) {
		case CategoryGrowth:
			w.Growth = v
		case CategoryWool:
			w.Wool = v
		case CategoryReproduction:
			w.Reproduction = v
		case CategoryHealth:
			w.Health = v
		case CategoryTemperament:
			w.Temperament = v
		default:
			return Weights{}, fmt.Errorf("unknown category %q in weights", name)
		}
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
