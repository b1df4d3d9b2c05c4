package engine

import (
	"math"
	"testing"

	"github.com/merinolabs/flockrank/internal/store"
)

func kpiRec(id string, values map[string]float64) *store.KPIRecord {
	return &store.KPIRecord{AnimalID: id, Values: values}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStandardizeGroupZScores(t *testing.T) {
	g := &Group{ID: "north_G1", Members: []string{"A1", "A2", "A3"}}
	kpis := map[string]*store.KPIRecord{
		"A1": kpiRec("A1", map[string]float64{TraitWt200Adj: 1}),
		"A2": kpiRec("A2", map[string]float64{TraitWt200Adj: 2}),
		"A3": kpiRec("A3", map[string]float64{TraitWt200Adj: 3}),
	}

	std := standardizeGroup(g, kpis)

	// Sample stddev of [1,2,3] is 1, so z-scores are -1, 0, 1.
	want := map[string]float64{"A1": -1, "A2": 0, "A3": 1}
	for id, w := range want {
		got, ok := std.Score(id, TraitWt200Adj)
		if !ok {
			t.Fatalf("%s has no standardized value", id)
		}
		if !approx(got, w) {
			t.Errorf("%s z-score = %f, want %f", id, got, w)
		}
	}
}

func TestStandardizeGroupMeanIsZero(t *testing.T) {
	g := &Group{ID: "north_G1", Members: []string{"A1", "A2", "A3", "A4"}}
	kpis := map[string]*store.KPIRecord{
		"A1": kpiRec("A1", map[string]float64{TraitCFW: 4.2}),
		"A2": kpiRec("A2", map[string]float64{TraitCFW: 3.1}),
		"A3": kpiRec("A3", map[string]float64{TraitCFW: 5.8}),
		"A4": kpiRec("A4", map[string]float64{TraitCFW: 4.9}),
	}

	std := standardizeGroup(g, kpis)

	var sum float64
	for _, id := range g.Members {
		v, ok := std.Score(id, TraitCFW)
		if !ok {
			t.Fatalf("%s missing standardized cfw", id)
		}
		sum += v
	}
	if !approx(sum, 0) {
		t.Errorf("z-scores sum to %f, want 0", sum)
	}
}

func TestStandardizeGroupZeroVariance(t *testing.T) {
	g := &Group{ID: "north_G1", Members: []string{"A1", "A2", "A3"}}
	kpis := map[string]*store.KPIRecord{
		"A1": kpiRec("A1", map[string]float64{TraitTemperament: 3}),
		"A2": kpiRec("A2", map[string]float64{TraitTemperament: 3}),
		"A3": kpiRec("A3", map[string]float64{TraitTemperament: 3}),
	}

	std := standardizeGroup(g, kpis)
	for _, id := range g.Members {
		v, ok := std.Score(id, TraitTemperament)
		if !ok {
			t.Fatalf("%s missing standardized value", id)
		}
		if v != 0 {
			t.Errorf("%s zero-variance z-score = %f, want 0", id, v)
		}
	}
}

func TestStandardizeGroupSingleHolder(t *testing.T) {
	g := &Group{ID: "north_G1", Members: []string{"A1", "A2"}}
	kpis := map[string]*store.KPIRecord{
		"A1": kpiRec("A1", map[string]float64{TraitFECAdj: 120}),
		"A2": kpiRec("A2", nil),
	}

	std := standardizeGroup(g, kpis)

	v, ok := std.Score("A1", TraitFECAdj)
	if !ok || v != 0 {
		t.Errorf("single holder z-score = %f (present=%v), want 0", v, ok)
	}
	if _, ok := std.Score("A2", TraitFECAdj); ok {
		t.Error("animal without the KPI received a standardized value")
	}
}

func TestStandardizeGroupMissingNeverImputed(t *testing.T) {
	g := &Group{ID: "north_G1", Members: []string{"A1", "A2", "A3"}}
	kpis := map[string]*store.KPIRecord{
		"A1": kpiRec("A1", map[string]float64{TraitADG100200: 0.31}),
		"A2": kpiRec("A2", map[string]float64{TraitADG100200: 0.25}),
		// A3 has no record at all.
	}

	std := standardizeGroup(g, kpis)
	if _, ok := std.Score("A3", TraitADG100200); ok {
		t.Error("missing KPI was imputed")
	}
	// The two holders still standardize against each other.
	if _, ok := std.Score("A1", TraitADG100200); !ok {
		t.Error("holder lost its standardized value")
	}
}

func TestMeanStddev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantSD   float64
	}{
		{"single value", []float64{5}, 5, 0},
		{"two values", []float64{1, 3}, 2, math.Sqrt(2)},
		{"identical", []float64{4, 4, 4}, 4, 0},
		{"spread", []float64{1, 2, 3}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, sd := meanStddev(tt.values)
			if !approx(mean, tt.wantMean) {
				t.Errorf("mean = %f, want %f", mean, tt.wantMean)
			}
			if !approx(sd, tt.wantSD) {
				t.Errorf("stddev = %f, want %f", sd, tt.wantSD)
			}
		})
	}
}
