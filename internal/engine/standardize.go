package engine

import (
	"math"

	"github.com/merinolabs/flockrank/internal/store"
)

// StandardizedTraits holds per-animal within-group z-scores, keyed by trait
// name. An absent key means the source KPI was missing; missing values are
// never imputed.
type StandardizedTraits map[string]map[string]float64

// Score returns the standardized value of a trait for an animal.
func (s StandardizedTraits) Score(animalID, trait string) (float64, bool) {
	m, ok := s[animalID]
	if !ok {
		return 0, false
	}
	v, ok := m[trait]
	return v, ok
}

// standardizeGroup computes within-group z-scores for every catalog trait
// over the group's members. Degenerate cases never raise: with zero variance
// or a single valid value there is no discriminating signal, so every member
// with a value scores 0 (treated as average).
func standardizeGroup(g *Group, kpis map[string]*store.KPIRecord) StandardizedTraits {
	out := make(StandardizedTraits, len(g.Members))
	for _, id := range g.Members {
		out[id] = make(map[string]float64)
	}

	for _, trait := range AllTraits() {
		var values []float64
		var holders []string
		for _, id := range g.Members {
			if v, ok := kpis[id].Value(trait); ok {
				values = append(values, v)
				holders = append(holders, id)
			}
		}
		if len(values) == 0 {
			continue
		}

		mean, sd := meanStddev(values)
		for i, id := range holders {
			if sd == 0 {
				out[id][trait] = 0
				continue
			}
			out[id][trait] = (values[i] - mean) / sd
		}
	}
	return out
}

// meanStddev returns the mean and sample standard deviation.
// With fewer than two values the stddev is 0.
func meanStddev(values []float64) (float64, float64) {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}
