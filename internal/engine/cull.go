package engine

import (
	"math"
	"sort"

	"github.com/merinolabs/flockrank/internal/store"
)

// Cull reason codes, in decreasing severity: an explicit pre-existing flag
// outranks any computed reason, hard-filter failures outrank a low relative
// score.
const (
	CullCodeExplicitFlag = "explicit_flag"
	CullCodeHardFilter   = "hard_filter"
	CullCodeLowScore     = "low_group_score"
)

const (
	severityExplicit = iota
	severityHardFilter
	severityLowScore
)

// CullReason is one triggering condition behind a cull recommendation.
type CullReason struct {
	Code     string   `json:"code"`
	Filter   string   `json:"filter,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Detail   string   `json:"detail,omitempty"`
	severity int
}

// CullRecommendation is the keep/cull decision for one animal, with every
// triggering reason ordered by severity.
type CullRecommendation struct {
	AnimalID string       `json:"animal_id"`
	Cull     bool         `json:"cull"`
	Reasons  []CullReason `json:"reasons,omitempty"`
}

// recommendCulls evaluates the cull policy over every animal, including those
// excluded from ranking. The explicit cull flag from input data is treated as
// an independent, highest-severity reason preserved alongside any computed
// reasons, never suppressing them.
func recommendCulls(
	animals []*store.Animal,
	outcomes map[string]FilterOutcome,
	composites map[string]*CompositeScore,
	membership map[string]string,
	groups []*Group,
	lowScorePercentile float64,
) []CullRecommendation {
	lowScore := lowScoreAnimals(groups, composites, lowScorePercentile)

	recs := make([]CullRecommendation, 0, len(animals))
	for _, a := range animals {
		rec := CullRecommendation{AnimalID: a.ID}

		if a.CullFlag {
			rec.Reasons = append(rec.Reasons, CullReason{
				Code:     CullCodeExplicitFlag,
				Detail:   a.CullReason,
				severity: severityExplicit,
			})
		}

		out := outcomes[a.ID]
		for _, code := range out.HardCodes {
			reason := CullReason{
				Code:     CullCodeHardFilter,
				Filter:   code,
				severity: severityHardFilter,
			}
			if v, ok := out.Values[code]; ok {
				value := v
				reason.Value = &value
			}
			rec.Reasons = append(rec.Reasons, reason)
		}

		if cs := composites[a.ID]; cs != nil && lowScore[a.ID] {
			value := cs.Score
			rec.Reasons = append(rec.Reasons, CullReason{
				Code:     CullCodeLowScore,
				Value:    &value,
				Detail:   "composite score in bottom of contemporary group " + membership[a.ID],
				severity: severityLowScore,
			})
		}

		sort.SliceStable(rec.Reasons, func(i, j int) bool {
			return rec.Reasons[i].severity < rec.Reasons[j].severity
		})
		rec.Cull = len(rec.Reasons) > 0
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].AnimalID < recs[j].AnimalID })
	return recs
}

// lowScoreAnimals finds animals whose composite score sits strictly below the
// given percentile threshold of their contemporary group. Scores tied at the
// threshold keep, so an all-equal group flags nobody. Only animals with a
// composite score participate; groups with fewer than two scored animals give
// no relative signal and never trigger.
func lowScoreAnimals(groups []*Group, composites map[string]*CompositeScore, percentile float64) map[string]bool {
	low := make(map[string]bool)
	if percentile <= 0 {
		return low
	}
	for _, g := range groups {
		var scored []string
		for _, id := range g.Members {
			if composites[id] != nil {
				scored = append(scored, id)
			}
		}
		if len(scored) < 2 {
			continue
		}
		values := make([]float64, len(scored))
		for i, id := range scored {
			values[i] = composites[id].Score
		}
		threshold := quantile(values, percentile)
		for _, id := range scored {
			if composites[id].Score < threshold {
				low[id] = true
			}
		}
	}
	return low
}

// quantile computes the q-th quantile of values by linear interpolation
// between the nearest order statistics. Values are not modified.
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}
