package engine

import (
	"github.com/merinolabs/flockrank/internal/store"
)

// Filter reason codes. Hard codes eliminate an animal from ranking; soft codes
// only flag it for reviewer attention.
const (
	CodeMinBirthWeight   = "min_birth_weight"
	CodeMaxFootrotScore  = "max_footrot_score"
	CodeMaxDagScore      = "max_dag_score"
	CodeMinWeaningWeight = "min_weaning_weight"
	CodeMaxMicron        = "max_micron"
	CodeBSEFail          = "bse_fail"

	CodeLow200DayWeight = "low_200d_weight"
	CodeLow300DayWeight = "low_300d_weight"
	CodeLowWeaningRate  = "low_weaning_rate"
)

// FilterOutcome records every hard failure and soft flag for one animal,
// along with the raw values that triggered them. All filters are evaluated;
// nothing short-circuits on the first failure.
type FilterOutcome struct {
	AnimalID   string             `json:"animal_id"`
	HardFailed bool               `json:"hard_failed"`
	HardCodes  []string           `json:"hard_codes,omitempty"`
	SoftFlags  []string           `json:"soft_flags,omitempty"`
	Values     map[string]float64 `json:"values,omitempty"`
}

// evaluateFilters applies every hard and soft filter to one animal's raw KPI
// values. Filters are absolute, not relative to cohort, so they read raw
// values only. A missing raw value never triggers a filter: absence of a
// measurement is not a failure.
func evaluateFilters(animalID string, rec *store.KPIRecord, cfg FilterConfig) FilterOutcome {
	out := FilterOutcome{
		AnimalID: animalID,
		Values:   make(map[string]float64),
	}

	hard := func(code string, value float64) {
		out.HardFailed = true
		out.HardCodes = append(out.HardCodes, code)
		out.Values[code] = value
	}
	soft := func(code string, value float64) {
		out.SoftFlags = append(out.SoftFlags, code)
		out.Values[code] = value
	}

	if v, ok := rec.Value(RawBirthWeight); ok && v < cfg.MinBirthWeight {
		hard(CodeMinBirthWeight, v)
	}
	if v, ok := rec.Value(TraitFootrot); ok && v > cfg.MaxFootrotScore {
		hard(CodeMaxFootrotScore, v)
	}
	if v, ok := rec.Value(TraitDag); ok && v > cfg.MaxDagScore {
		hard(CodeMaxDagScore, v)
	}
	if v, ok := rec.Value(RawWeaningWeight); ok && v < cfg.MinWeaningWeight {
		hard(CodeMinWeaningWeight, v)
	}
	if v, ok := rec.Value(RawMicron); ok && v > cfg.MaxMicron {
		hard(CodeMaxMicron, v)
	}
	// bse_pass is encoded 1=pass, 0=fail
	if cfg.BSERequired {
		if v, ok := rec.Value(TraitBSEPass); ok && v == 0 {
			hard(CodeBSEFail, v)
		}
	}

	if v, ok := rec.Value(RawWt200); ok && v < cfg.Min200DayWeight {
		soft(CodeLow200DayWeight, v)
	}
	if v, ok := rec.Value(RawWt300); ok && v < cfg.Min300DayWeight {
		soft(CodeLow300DayWeight, v)
	}
	if v, ok := rec.Value(TraitWeaningRate); ok && v < cfg.MinWeaningRate {
		soft(CodeLowWeaningRate, v)
	}

	if len(out.Values) == 0 {
		out.Values = nil
	}
	return out
}
