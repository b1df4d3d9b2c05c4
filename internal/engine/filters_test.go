package engine

import (
	"testing"
)

func TestEvaluateFiltersHardFailures(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MaxFootrotScore = 3

	tests := []struct {
		name      string
		values    map[string]float64
		wantHard  bool
		wantCodes []string
	}{
		{
			name:      "footrot above threshold",
			values:    map[string]float64{TraitFootrot: 5},
			wantHard:  true,
			wantCodes: []string{CodeMaxFootrotScore},
		},
		{
			name:      "footrot at threshold passes",
			values:    map[string]float64{TraitFootrot: 3},
			wantHard:  false,
			wantCodes: nil,
		},
		{
			name:      "birth weight below minimum",
			values:    map[string]float64{RawBirthWeight: 1.5},
			wantHard:  true,
			wantCodes: []string{CodeMinBirthWeight},
		},
		{
			name:      "bse fail",
			values:    map[string]float64{TraitBSEPass: 0},
			wantHard:  true,
			wantCodes: []string{CodeBSEFail},
		},
		{
			name:      "bse pass",
			values:    map[string]float64{TraitBSEPass: 1},
			wantHard:  false,
			wantCodes: nil,
		},
		{
			name:      "micron above maximum",
			values:    map[string]float64{RawMicron: 26.1},
			wantHard:  true,
			wantCodes: []string{CodeMaxMicron},
		},
		{
			name: "multiple hard failures all recorded",
			values: map[string]float64{
				TraitFootrot:   5,
				RawBirthWeight: 1.0,
			},
			wantHard:  true,
			wantCodes: []string{CodeMinBirthWeight, CodeMaxFootrotScore},
		},
		{
			name:      "no values never fails",
			values:    nil,
			wantHard:  false,
			wantCodes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := evaluateFilters("A1", kpiRec("A1", tt.values), cfg)
			if out.HardFailed != tt.wantHard {
				t.Errorf("hard failed = %v, want %v", out.HardFailed, tt.wantHard)
			}
			if len(out.HardCodes) != len(tt.wantCodes) {
				t.Fatalf("hard codes = %v, want %v", out.HardCodes, tt.wantCodes)
			}
			for i, code := range tt.wantCodes {
				if out.HardCodes[i] != code {
					t.Errorf("hard code[%d] = %s, want %s", i, out.HardCodes[i], code)
				}
			}
		})
	}
}

func TestEvaluateFiltersMissingNeverTriggers(t *testing.T) {
	cfg := DefaultFilterConfig()
	// BSE required but no bse_pass value recorded: absence is not failure.
	out := evaluateFilters("A1", nil, cfg)
	if out.HardFailed || len(out.SoftFlags) > 0 {
		t.Errorf("missing record triggered filters: %+v", out)
	}
}

func TestEvaluateFiltersSoftFlags(t *testing.T) {
	cfg := DefaultFilterConfig()
	out := evaluateFilters("A1", kpiRec("A1", map[string]float64{
		RawWt200:         35.0, // below 40
		TraitWeaningRate: 0.4,  // below 0.5
	}), cfg)

	if out.HardFailed {
		t.Error("soft thresholds produced a hard failure")
	}
	if len(out.SoftFlags) != 2 {
		t.Fatalf("soft flags = %v, want 2 entries", out.SoftFlags)
	}
	if out.SoftFlags[0] != CodeLow200DayWeight || out.SoftFlags[1] != CodeLowWeaningRate {
		t.Errorf("unexpected soft flags %v", out.SoftFlags)
	}
}

func TestEvaluateFiltersRecordsTriggeringValues(t *testing.T) {
	cfg := DefaultFilterConfig()
	out := evaluateFilters("A1", kpiRec("A1", map[string]float64{TraitDag: 5}), cfg)
	if v, ok := out.Values[CodeMaxDagScore]; !ok || v != 5 {
		t.Errorf("triggering value not recorded, values = %v", out.Values)
	}
}
